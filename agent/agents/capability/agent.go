// Package capability implements the specialized handlers a routed turn can
// be handed to. Each agent owns one domain's tool catalog and runs a bounded
// tool loop against its chat model until the model produces a final answer.
package capability

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
	toolx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/tool"
)

// maxToolRounds bounds the tool loop so a model that keeps requesting tools
// cannot spin forever.
const maxToolRounds = 8

type agentImpl struct {
	name          string
	applicability string
	instructions  string
	model         contractx.ChatModel
	schemas       []contractx.ToolSchema
	exec          toolx.Executor
}

func newAgent(
	name string,
	applicability string,
	instructions string,
	model contractx.ChatModel,
	schemas []contractx.ToolSchema,
	exec toolx.Executor,
) *agentImpl {
	return &agentImpl{
		name:          name,
		applicability: applicability,
		instructions:  instructions,
		model:         model,
		schemas:       schemas,
		exec:          exec,
	}
}

func (a *agentImpl) Name() string { return a.name }

func (a *agentImpl) Applicability() string { return a.applicability }

// Run answers one handed-off turn in batch mode. Tool rounds happen silently;
// only the model's final text is returned.
func (a *agentImpl) Run(ctx context.Context, input string) (string, error) {
	resp, err := a.loop(ctx, input, nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// RunStream answers one handed-off turn, emitting text deltas of the final
// response into the returned channel. Tool rounds stay silent; the channel is
// closed once the final response is complete or carries a terminal error.
func (a *agentImpl) RunStream(ctx context.Context, input string) (<-chan contractx.StreamEvent, error) {
	out := make(chan contractx.StreamEvent)
	go func() {
		defer close(out)
		_, err := a.loop(ctx, input, func(delta string) {
			select {
			case out <- contractx.StreamEvent{Text: delta}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			select {
			case out <- contractx.StreamEvent{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// loop runs the tool-calling conversation. With a non-nil emit the deltas of
// the final response are forwarded through it; rounds that end in tool calls
// keep their deltas to themselves.
func (a *agentImpl) loop(ctx context.Context, input string, emit func(delta string)) (contractx.ChatResponse, error) {
	messages := []contractx.ChatMessage{
		contractx.SystemMessage(a.instructions),
		contractx.UserMessage(input),
	}

	for round := 0; round < maxToolRounds; round++ {
		var buffered []string
		var capture func(delta string)
		if emit != nil {
			capture = func(delta string) { buffered = append(buffered, delta) }
		}
		resp, err := a.step(ctx, messages, capture)
		if err != nil {
			return contractx.ChatResponse{}, fmt.Errorf("%w: agent=%s invoke: %v", contractx.ErrModelInvoke, a.name, err)
		}
		if len(resp.ToolCalls) == 0 {
			if strings.TrimSpace(resp.Content) == "" {
				return contractx.ChatResponse{}, fmt.Errorf("%w: agent=%s returned empty content", contractx.ErrSchemaViolation, a.name)
			}
			if emit != nil {
				for _, delta := range buffered {
					emit(delta)
				}
			}
			return resp, nil
		}

		messages = append(messages, contractx.AssistantMessage(resp))
		for _, call := range resp.ToolCalls {
			result, err := a.exec(ctx, call.Name, call.Args)
			if err != nil {
				return contractx.ChatResponse{}, fmt.Errorf("%w: agent=%s tool=%s: %v", contractx.ErrModelInvoke, a.name, call.Name, err)
			}
			messages = append(messages, contractx.ToolMessage(call.ID, renderToolResult(result)))
		}
	}

	return contractx.ChatResponse{}, fmt.Errorf("%w: agent=%s exceeded %d tool rounds", contractx.ErrSchemaViolation, a.name, maxToolRounds)
}

func (a *agentImpl) step(ctx context.Context, messages []contractx.ChatMessage, emit func(delta string)) (contractx.ChatResponse, error) {
	req := contractx.ChatRequest{Messages: messages, Tools: a.schemas}
	if emit == nil {
		return a.model.Complete(ctx, req)
	}
	return a.model.Stream(ctx, req, emit)
}

// renderToolResult flattens a tool outcome into the text fed back to the
// model. Backend failures come back as readable errors so the model can
// apologise or retry instead of the turn aborting.
func renderToolResult(result contractx.ToolResult) string {
	if result.Error != "" {
		return "error: " + result.Error
	}
	return result.Result
}
