// Package coordinator routes each turn: it either answers directly, runs a
// web search, or hands the turn off to exactly one capability agent. A
// handoff is exclusive and single-hop; the chosen agent produces the entire
// response for the turn.
package coordinator

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
	toolx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/tool"
)

// handoffPrefix marks the routing tools: one per capability agent, named
// handoff.<agent>.
const handoffPrefix = "handoff."

// maxRoutingRounds bounds the search loop before a routing decision must
// fall out.
const maxRoutingRounds = 4

const instructions = `You are the coordinating assistant of a voice assistant.

Analyze the input and hand off to the appropriate specialized agent when the
request falls into its domain. Hand off at most once per turn; after a
handoff the specialized agent owns the whole answer.

When no agent fits, answer yourself. Use web.search when the answer needs
current information you do not have. For small talk and general questions,
just answer.

Answer in the language the user writes in. Keep answers short and speakable.`

type coordinatorImpl struct {
	model  contractx.ChatModel
	agents map[string]contractx.CapabilityAgent
	tools  []contractx.ToolSchema
	exec   toolx.Executor
}

// New builds the dispatcher. The search provider may be nil, in which case
// the coordinator routes and answers without a web-search capability.
func New(model contractx.ChatModel, registry contractx.Registry, search contractx.SearchProvider) contractx.Dispatcher {
	searchSchemas, exec := toolx.BuildForCoordinator(search)

	agents := make(map[string]contractx.CapabilityAgent)
	tools := make([]contractx.ToolSchema, 0, len(searchSchemas)+len(registry.All()))
	for _, agent := range registry.All() {
		agents[agent.Name()] = agent
		tools = append(tools, contractx.ToolSchema{
			Name:        handoffPrefix + agent.Name(),
			Description: agent.Applicability(),
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		})
	}
	tools = append(tools, searchSchemas...)

	return &coordinatorImpl{
		model:  model,
		agents: agents,
		tools:  tools,
		exec:   exec,
	}
}

// Dispatch routes one turn in batch mode.
func (c *coordinatorImpl) Dispatch(ctx context.Context, text, summary string) (contractx.DispatchResult, error) {
	prompt := buildPrompt(text, summary)

	agent, direct, _, err := c.route(ctx, prompt, false)
	if err != nil {
		return contractx.DispatchResult{}, err
	}
	if agent == nil {
		return contractx.DispatchResult{HandledBy: contractx.CoordinatorName, Output: direct}, nil
	}

	out, err := agent.Run(ctx, prompt)
	if err != nil {
		return contractx.DispatchResult{}, err
	}
	return contractx.DispatchResult{HandledBy: agent.Name(), Output: out}, nil
}

// DispatchStream routes one turn and returns the response as an ordered
// stream. Routing itself runs synchronously so HandledBy is final on return;
// only the response text arrives asynchronously.
func (c *coordinatorImpl) DispatchStream(ctx context.Context, text, summary string) (contractx.DispatchResult, error) {
	prompt := buildPrompt(text, summary)

	agent, _, deltas, err := c.route(ctx, prompt, true)
	if err != nil {
		return contractx.DispatchResult{}, err
	}

	if agent != nil {
		stream, err := agent.RunStream(ctx, prompt)
		if err != nil {
			return contractx.DispatchResult{}, err
		}
		return contractx.DispatchResult{HandledBy: agent.Name(), Stream: stream}, nil
	}

	out := make(chan contractx.StreamEvent)
	go func() {
		defer close(out)
		for _, delta := range deltas {
			select {
			case out <- contractx.StreamEvent{Text: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return contractx.DispatchResult{HandledBy: contractx.CoordinatorName, Stream: out}, nil
}

// route runs the routing conversation. It returns either the chosen agent,
// or the coordinator's own answer (plus its deltas when streaming). The
// first handoff call wins; any further tool calls in the same response are
// dropped.
func (c *coordinatorImpl) route(ctx context.Context, prompt string, streaming bool) (contractx.CapabilityAgent, string, []string, error) {
	messages := []contractx.ChatMessage{
		contractx.SystemMessage(instructions),
		contractx.UserMessage(prompt),
	}

	for round := 0; round < maxRoutingRounds; round++ {
		var deltas []string
		var resp contractx.ChatResponse
		var err error

		req := contractx.ChatRequest{Messages: messages, Tools: c.tools}
		if streaming {
			resp, err = c.model.Stream(ctx, req, func(delta string) {
				deltas = append(deltas, delta)
			})
		} else {
			resp, err = c.model.Complete(ctx, req)
		}
		if err != nil {
			return nil, "", nil, fmt.Errorf("%w: coordinator invoke: %v", contractx.ErrModelInvoke, err)
		}

		if agent := c.pickHandoff(resp.ToolCalls); agent != nil {
			return agent, "", nil, nil
		}

		if len(resp.ToolCalls) == 0 {
			if strings.TrimSpace(resp.Content) == "" {
				return nil, "", nil, fmt.Errorf("%w: coordinator answer is empty", contractx.ErrNoOutput)
			}
			return nil, resp.Content, deltas, nil
		}

		messages = append(messages, contractx.AssistantMessage(resp))
		for _, call := range resp.ToolCalls {
			result, err := c.exec(ctx, call.Name, call.Args)
			if err != nil {
				return nil, "", nil, fmt.Errorf("%w: coordinator tool=%s: %v", contractx.ErrModelInvoke, call.Name, err)
			}
			messages = append(messages, contractx.ToolMessage(call.ID, renderToolResult(result)))
		}
	}

	return nil, "", nil, fmt.Errorf("%w: coordinator exceeded %d routing rounds", contractx.ErrNoOutput, maxRoutingRounds)
}

func (c *coordinatorImpl) pickHandoff(calls []contractx.ToolCall) contractx.CapabilityAgent {
	for _, call := range calls {
		if !strings.HasPrefix(call.Name, handoffPrefix) {
			continue
		}
		if agent, ok := c.agents[strings.TrimPrefix(call.Name, handoffPrefix)]; ok {
			return agent
		}
	}
	return nil
}

// buildPrompt frames the turn for routing: prior context first, then the new
// input. An empty summary still prints the frame so the shape is stable.
func buildPrompt(text, summary string) string {
	return fmt.Sprintf("History: %s\n\nNew Input: %s", summary, text)
}

func renderToolResult(result contractx.ToolResult) string {
	if result.Error != "" {
		return "error: " + result.Error
	}
	return result.Result
}
