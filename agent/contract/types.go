package contract

import "time"

// Role identifies the author of a recorded conversation turn.
type Role string

const (
	RoleUser      Role = "User"
	RoleAssistant Role = "Assistant"
)

// Turn is one immutable (role, content, timestamp) unit of conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type AgentType string

const (
	AgentTypeCoordinator AgentType = "coordinator"
	AgentTypeScheduler   AgentType = "scheduler"
	AgentTypeTodo        AgentType = "todo"
)

// CoordinatorName is the HandledBy value for turns the coordinator answers
// itself instead of handing off.
const CoordinatorName = "coordinator"

// DispatchResult is the outcome of routing one turn.
// In batch mode Output carries the final text and Stream is nil.
// In streaming mode Stream carries ordered text fragments until it is closed;
// Output stays empty until the consumer has drained the stream.
type DispatchResult struct {
	HandledBy string
	Output    string
	Stream    <-chan StreamEvent
}

// StreamEvent is one element of a dispatch stream: either a text fragment or
// a terminal error. The end of the stream is signalled by channel close.
type StreamEvent struct {
	Text string
	Err  error
}

// ToolCall is a tool invocation requested by the language-routing backend.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the outcome of one tool invocation. Backend failures surface
// in Error as human-readable text; they never propagate as Go errors past the
// tool boundary.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ToolSchema describes one callable operation to the routing backend.
// Parameters is a JSON-schema object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

const (
	MessageRoleSystem    = "system"
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleTool      = "tool"
)

// ChatMessage is one prompt message for the routing backend.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant messages only
	ToolCallID string     // tool messages only
}

type ChatRequest struct {
	Messages []ChatMessage
	Tools    []ToolSchema
}

type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: MessageRoleSystem, Content: content}
}

func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: MessageRoleUser, Content: content}
}

// AssistantMessage records a backend response, including any tool calls, so
// it can be replayed in the next round of a tool loop.
func AssistantMessage(resp ChatResponse) ChatMessage {
	return ChatMessage{
		Role:      MessageRoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}
}

func ToolMessage(toolCallID, content string) ChatMessage {
	return ChatMessage{Role: MessageRoleTool, Content: content, ToolCallID: toolCallID}
}
