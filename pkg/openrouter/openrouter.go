// Package openrouter adapts the OpenAI-compatible OpenRouter API to the
// agent contract.
package openrouter

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type OpenRouterConfig struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken *int          `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

// Config is kept as an alias for backward compatibility.
type Config = OpenRouterConfig

// Client implements contract.ChatModel against OpenRouter.
type Client struct {
	sdk openaisdk.Client
	cfg Config
}

var _ contractx.ChatModel = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}

	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	// OpenRouter attribution headers
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	return &Client{sdk: openaisdk.NewClient(opts...), cfg: cfg}
}

func (c *Client) Complete(ctx context.Context, req contractx.ChatRequest) (contractx.ChatResponse, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return contractx.ChatResponse{}, err
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.ChatResponse{}, fmt.Errorf("openrouter: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return contractx.ChatResponse{}, fmt.Errorf("openrouter: completion returned no choices")
	}
	return convertMessage(resp.Choices[0].Message.Content, resp.Choices[0].Message.ToolCalls)
}

func (c *Client) Stream(ctx context.Context, req contractx.ChatRequest, emit func(delta string)) (contractx.ChatResponse, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return contractx.ChatResponse{}, err
	}

	stream := c.sdk.Chat.Completions.NewStreaming(ctx, params)
	acc := openaisdk.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" && emit != nil {
				emit(delta)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return contractx.ChatResponse{}, fmt.Errorf("openrouter: stream: %w", err)
	}
	if len(acc.Choices) == 0 {
		return contractx.ChatResponse{}, fmt.Errorf("openrouter: stream returned no choices")
	}
	return convertMessage(acc.Choices[0].Message.Content, acc.Choices[0].Message.ToolCalls)
}

func (c *Client) buildParams(req contractx.ChatRequest) (openaisdk.ChatCompletionNewParams, error) {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		converted, err := convertParamMessage(msg)
		if err != nil {
			return openaisdk.ChatCompletionNewParams{}, err
		}
		messages = append(messages, converted)
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(strings.TrimSpace(c.cfg.Model)),
		Messages:    messages,
		Temperature: openaisdk.Float(float64(c.cfg.Temperature)),
	}
	if c.cfg.MaxCompletionToken != nil {
		params.MaxCompletionTokens = openaisdk.Int(int64(*c.cfg.MaxCompletionToken))
	}

	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openaisdk.String(tool.Description),
				Parameters:  shared.FunctionParameters(tool.Parameters),
			},
		})
	}
	return params, nil
}

func convertParamMessage(msg contractx.ChatMessage) (openaisdk.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case contractx.MessageRoleSystem:
		return openaisdk.SystemMessage(msg.Content), nil
	case contractx.MessageRoleUser:
		return openaisdk.UserMessage(msg.Content), nil
	case contractx.MessageRoleTool:
		return openaisdk.ToolMessage(msg.Content, msg.ToolCallID), nil
	case contractx.MessageRoleAssistant:
		if len(msg.ToolCalls) == 0 {
			return openaisdk.AssistantMessage(msg.Content), nil
		}
		assistant := openaisdk.ChatCompletionAssistantMessageParam{}
		if msg.Content != "" {
			assistant.Content.OfString = openaisdk.String(msg.Content)
		}
		for _, call := range msg.ToolCalls {
			args, err := json.Marshal(call.Args)
			if err != nil {
				return openaisdk.ChatCompletionMessageParamUnion{}, fmt.Errorf("openrouter: encode tool args: %w", err)
			}
			assistant.ToolCalls = append(assistant.ToolCalls, openaisdk.ChatCompletionMessageToolCallParam{
				ID: call.ID,
				Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
					Name:      call.Name,
					Arguments: string(args),
				},
			})
		}
		return openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant}, nil
	default:
		return openaisdk.ChatCompletionMessageParamUnion{}, fmt.Errorf("openrouter: unknown message role %q", msg.Role)
	}
}

func convertMessage(content string, calls []openaisdk.ChatCompletionMessageToolCall) (contractx.ChatResponse, error) {
	resp := contractx.ChatResponse{Content: content}
	for _, call := range calls {
		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return contractx.ChatResponse{}, fmt.Errorf("openrouter: decode tool args for %s: %w", call.Function.Name, err)
			}
		}
		resp.ToolCalls = append(resp.ToolCalls, contractx.ToolCall{
			ID:   call.ID,
			Name: call.Function.Name,
			Args: args,
		})
	}
	return resp, nil
}
