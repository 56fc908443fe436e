package contract

import "context"

// ChatModel is the opaque language-routing backend. Implementations decide
// whether to answer with content, request tool calls, or both; the core only
// relies on this contract and never on a concrete provider.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// Stream behaves like Complete but emits text deltas in production order
	// while the response is being generated. The returned ChatResponse carries
	// the accumulated content and any tool calls.
	Stream(ctx context.Context, req ChatRequest, emit func(delta string)) (ChatResponse, error)
}

// CapabilityAgent is a specialized handler owning a named set of backend
// operations for one domain. Agents are stateless across turns and safe for
// concurrent use once constructed.
type CapabilityAgent interface {
	Name() string

	// Applicability describes, in natural language, when this agent should
	// receive a turn. The coordinator feeds it to the routing decision.
	Applicability() string

	Run(ctx context.Context, input string) (string, error)
	RunStream(ctx context.Context, input string) (<-chan StreamEvent, error)
}

// Dispatcher routes one turn's input to its handler and obtains output.
// Implementations must be immutable after construction so a single instance
// can be shared read-only across sessions.
type Dispatcher interface {
	Dispatch(ctx context.Context, text, summary string) (DispatchResult, error)
	DispatchStream(ctx context.Context, text, summary string) (DispatchResult, error)
}

// Registry exposes the closed set of capability agents.
type Registry interface {
	Scheduler() CapabilityAgent
	Todo() CapabilityAgent
	All() []CapabilityAgent
}

// SpeechCodec converts between audio bytes and text. Both directions are
// black boxes; failures are ordinary errors the caller degrades gracefully on.
type SpeechCodec interface {
	SpeechToText(ctx context.Context, audio []byte, sampleRate int) (string, error)
	TextToSpeech(ctx context.Context, text, voice string) ([]byte, error)
}

// SearchProvider is the generic web-search capability available to the
// coordinator. It returns a compact, model-readable result block.
type SearchProvider interface {
	Search(ctx context.Context, query string, count int) (string, error)
}
