package coordinator

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

type scriptedModel struct {
	responses []contractx.ChatResponse
	err       error
	requests  []contractx.ChatRequest
}

func (m *scriptedModel) Complete(_ context.Context, req contractx.ChatRequest) (contractx.ChatResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return contractx.ChatResponse{}, m.err
	}
	if len(m.responses) == 0 {
		return contractx.ChatResponse{}, errors.New("script exhausted")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *scriptedModel) Stream(ctx context.Context, req contractx.ChatRequest, emit func(delta string)) (contractx.ChatResponse, error) {
	resp, err := m.Complete(ctx, req)
	if err != nil {
		return contractx.ChatResponse{}, err
	}
	for _, word := range strings.SplitAfter(resp.Content, " ") {
		if word != "" {
			emit(word)
		}
	}
	return resp, nil
}

type fakeAgent struct {
	name          string
	applicability string
	input         string
	out           string
	err           error
}

func (a *fakeAgent) Name() string { return a.name }

func (a *fakeAgent) Applicability() string { return a.applicability }

func (a *fakeAgent) Run(_ context.Context, input string) (string, error) {
	a.input = input
	return a.out, a.err
}

func (a *fakeAgent) RunStream(ctx context.Context, input string) (<-chan contractx.StreamEvent, error) {
	out, err := a.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	ch := make(chan contractx.StreamEvent, 1)
	ch <- contractx.StreamEvent{Text: out}
	close(ch)
	return ch, nil
}

type fakeRegistry struct {
	scheduler *fakeAgent
	todo      *fakeAgent
}

func (r *fakeRegistry) Scheduler() contractx.CapabilityAgent { return r.scheduler }

func (r *fakeRegistry) Todo() contractx.CapabilityAgent { return r.todo }

func (r *fakeRegistry) All() []contractx.CapabilityAgent {
	return []contractx.CapabilityAgent{r.scheduler, r.todo}
}

type fakeSearch struct {
	query string
	out   string
	err   error
}

func (s *fakeSearch) Search(_ context.Context, query string, _ int) (string, error) {
	s.query = query
	return s.out, s.err
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		scheduler: &fakeAgent{name: "scheduler", applicability: "Handles calendar requests.", out: "booked"},
		todo:      &fakeAgent{name: "todo", applicability: "Handles task requests.", out: "noted"},
	}
}

func TestDispatchDirectAnswer(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []contractx.ChatResponse{{Content: "Hello there."}}}
	dispatcher := New(model, newFakeRegistry(), nil)

	result, err := dispatcher.Dispatch(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.HandledBy != contractx.CoordinatorName {
		t.Fatalf("expected coordinator to answer, got %q", result.HandledBy)
	}
	if result.Output != "Hello there." {
		t.Fatalf("unexpected output: %q", result.Output)
	}
}

func TestDispatchHandsOffToScheduler(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []contractx.ChatResponse{
		{ToolCalls: []contractx.ToolCall{{ID: "call1", Name: "handoff.scheduler"}}},
	}}
	registry := newFakeRegistry()
	dispatcher := New(model, registry, nil)

	result, err := dispatcher.Dispatch(context.Background(), "book a dentist appointment tomorrow", "User: hi\nAssistant: hello")
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.HandledBy != "scheduler" {
		t.Fatalf("expected scheduler handoff, got %q", result.HandledBy)
	}
	if result.Output != "booked" {
		t.Fatalf("unexpected output: %q", result.Output)
	}
	if !strings.Contains(registry.scheduler.input, "History: User: hi") {
		t.Fatalf("agent did not receive the framed prompt: %q", registry.scheduler.input)
	}
	if !strings.Contains(registry.scheduler.input, "New Input: book a dentist appointment tomorrow") {
		t.Fatalf("agent did not receive the new input: %q", registry.scheduler.input)
	}
}

func TestDispatchFirstHandoffWins(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []contractx.ChatResponse{
		{ToolCalls: []contractx.ToolCall{
			{ID: "call1", Name: "handoff.todo"},
			{ID: "call2", Name: "handoff.scheduler"},
		}},
	}}
	registry := newFakeRegistry()
	dispatcher := New(model, registry, nil)

	result, err := dispatcher.Dispatch(context.Background(), "remind me to buy milk", "")
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.HandledBy != "todo" {
		t.Fatalf("expected the first handoff to win, got %q", result.HandledBy)
	}
	if registry.scheduler.input != "" {
		t.Fatal("second handoff target must not run")
	}
}

func TestDispatchRunsWebSearchRound(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []contractx.ChatResponse{
		{ToolCalls: []contractx.ToolCall{{ID: "call1", Name: "web.search", Args: map[string]any{"query": "weather berlin"}}}},
		{Content: "It will rain in Berlin tomorrow."},
	}}
	search := &fakeSearch{out: "1. Berlin weather: rain"}
	dispatcher := New(model, newFakeRegistry(), search)

	result, err := dispatcher.Dispatch(context.Background(), "what's the weather in berlin tomorrow", "")
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.HandledBy != contractx.CoordinatorName {
		t.Fatalf("search turns stay with the coordinator, got %q", result.HandledBy)
	}
	if search.query != "weather berlin" {
		t.Fatalf("search received wrong query: %q", search.query)
	}

	second := model.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != contractx.MessageRoleTool || !strings.Contains(last.Content, "Berlin weather") {
		t.Fatalf("search result not replayed to the model: %+v", last)
	}
}

func TestDispatchWrapsModelFailure(t *testing.T) {
	t.Parallel()

	dispatcher := New(&scriptedModel{err: errors.New("upstream 500")}, newFakeRegistry(), nil)

	_, err := dispatcher.Dispatch(context.Background(), "hi", "")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestDispatchRejectsEmptyAnswer(t *testing.T) {
	t.Parallel()

	dispatcher := New(&scriptedModel{responses: []contractx.ChatResponse{{Content: " "}}}, newFakeRegistry(), nil)

	_, err := dispatcher.Dispatch(context.Background(), "hi", "")
	if !errors.Is(err, contractx.ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
}

func TestDispatchStreamDirectAnswerReplaysDeltas(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []contractx.ChatResponse{{Content: "Hello there friend."}}}
	dispatcher := New(model, newFakeRegistry(), nil)

	result, err := dispatcher.DispatchStream(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("dispatch stream failed: %v", err)
	}
	if result.HandledBy != contractx.CoordinatorName {
		t.Fatalf("expected coordinator, got %q", result.HandledBy)
	}

	var b strings.Builder
	var chunks int
	for ev := range result.Stream {
		if ev.Err != nil {
			t.Fatalf("unexpected stream error: %v", ev.Err)
		}
		b.WriteString(ev.Text)
		chunks++
	}
	if b.String() != "Hello there friend." {
		t.Fatalf("stream does not reassemble the answer: %q", b.String())
	}
	if chunks < 2 {
		t.Fatalf("expected multiple deltas, got %d", chunks)
	}
}

func TestDispatchStreamHandoffForwardsAgentStream(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []contractx.ChatResponse{
		{ToolCalls: []contractx.ToolCall{{ID: "call1", Name: "handoff.scheduler"}}},
	}}
	dispatcher := New(model, newFakeRegistry(), nil)

	result, err := dispatcher.DispatchStream(context.Background(), "book something", "")
	if err != nil {
		t.Fatalf("dispatch stream failed: %v", err)
	}
	if result.HandledBy != "scheduler" {
		t.Fatalf("expected scheduler, got %q", result.HandledBy)
	}

	var b strings.Builder
	for ev := range result.Stream {
		b.WriteString(ev.Text)
	}
	if b.String() != "booked" {
		t.Fatalf("agent stream not forwarded: %q", b.String())
	}
}
