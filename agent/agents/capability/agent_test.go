package capability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/backend"
	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

// scriptedModel replays a fixed sequence of responses and records every
// request it saw.
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

type recordingCalendar struct {
	created []backend.EventDetails
	err     error
}

func (c *recordingCalendar) CreateEvent(_ context.Context, details backend.EventDetails) (string, error) {
	c.created = append(c.created, details)
	if c.err != nil {
		return "", c.err
	}
	return "Event created successfully", nil
}

func (c *recordingCalendar) ModifyEvent(context.Context, backend.ModifyEventParams) (string, error) {
	return "", errors.New("not scripted")
}

func (c *recordingCalendar) DeleteEvent(context.Context, backend.DeleteEventParams) (string, error) {
	return "", errors.New("not scripted")
}

func (c *recordingCalendar) ListEvents(context.Context, backend.EventListParams) (string, error) {
	return "", errors.New("not scripted")
}

func fixedNow() time.Time {
	return time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
}

func TestSchedulerResolvesRelativeDateThroughTimeTool(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []contractx.ChatResponse{
		{ToolCalls: []contractx.ToolCall{{ID: "call1", Name: "time.now"}}},
		{ToolCalls: []contractx.ToolCall{{
			ID:   "call2",
			Name: "calendar.create_event",
			Args: map[string]any{
				"summary":    "Dentist",
				"start_time": "2025-04-08T09:00:00",
				"end_time":   "2025-04-08T10:00:00",
			},
		}}},
		{Content: "Your dentist appointment is booked for tomorrow at nine."},
	}}
	cal := &recordingCalendar{}
	agent := NewScheduler(model, cal, fixedNow)

	out, err := agent.Run(context.Background(), "book a dentist appointment tomorrow at 9")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "Your dentist appointment is booked for tomorrow at nine." {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(cal.created) != 1 {
		t.Fatalf("expected exactly one created event, got %d", len(cal.created))
	}
	if cal.created[0].StartTime != "2025-04-08T09:00:00" {
		t.Fatalf("unexpected start time: %q", cal.created[0].StartTime)
	}

	// The time.now result must have been fed back before the create round.
	second := model.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != contractx.MessageRoleTool || !strings.Contains(last.Content, "2025-04-07 09:00:00") {
		t.Fatalf("time.now result not replayed to the model: %+v", last)
	}
}

func TestSchedulerSurfacesBackendErrorToModel(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []contractx.ChatResponse{
		{ToolCalls: []contractx.ToolCall{{
			ID:   "call1",
			Name: "calendar.create_event",
			Args: map[string]any{"summary": "Standup", "start_time": "2025-04-08T09:00:00", "end_time": "2025-04-08T09:15:00"},
		}}},
		{Content: "I could not reach the calendar, please try again later."},
	}}
	cal := &recordingCalendar{err: errors.New("calendar backend unreachable")}
	agent := NewScheduler(model, cal, fixedNow)

	out, err := agent.Run(context.Background(), "create a standup for tomorrow morning")
	if err != nil {
		t.Fatalf("backend errors must not abort the turn: %v", err)
	}
	if out == "" {
		t.Fatal("expected an apology answer")
	}

	second := model.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if !strings.Contains(last.Content, "error: calendar backend unreachable") {
		t.Fatalf("backend error not rendered into the tool message: %q", last.Content)
	}
}

func TestAgentRejectsEmptyFinalContent(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []contractx.ChatResponse{{Content: "   "}}}
	agent := NewScheduler(model, &recordingCalendar{}, fixedNow)

	_, err := agent.Run(context.Background(), "hello")
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestAgentWrapsModelFailure(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{err: errors.New("upstream 500")}
	agent := NewScheduler(model, &recordingCalendar{}, fixedNow)

	_, err := agent.Run(context.Background(), "hello")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestAgentStopsAfterTooManyToolRounds(t *testing.T) {
	t.Parallel()

	var responses []contractx.ChatResponse
	for i := 0; i < maxToolRounds+1; i++ {
		responses = append(responses, contractx.ChatResponse{
			ToolCalls: []contractx.ToolCall{{ID: "loop", Name: "time.now"}},
		})
	}
	agent := NewScheduler(&scriptedModel{responses: responses}, &recordingCalendar{}, fixedNow)

	_, err := agent.Run(context.Background(), "hello")
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation after round cap, got %v", err)
	}
}

func TestRunStreamEmitsOnlyFinalResponse(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []contractx.ChatResponse{
		{Content: "checking", ToolCalls: []contractx.ToolCall{{ID: "call1", Name: "time.now"}}},
		{Content: "It is nine in the morning."},
	}}
	agent := NewScheduler(model, &recordingCalendar{}, fixedNow)

	stream, err := agent.RunStream(context.Background(), "what time is it")
	if err != nil {
		t.Fatalf("run stream failed: %v", err)
	}

	var b strings.Builder
	for ev := range stream {
		if ev.Err != nil {
			t.Fatalf("unexpected stream error: %v", ev.Err)
		}
		b.WriteString(ev.Text)
	}
	if got := b.String(); got != "It is nine in the morning." {
		t.Fatalf("stream leaked intermediate content: %q", got)
	}
}

func TestRunStreamForwardsTerminalError(t *testing.T) {
	t.Parallel()

	agent := NewScheduler(&scriptedModel{err: errors.New("upstream 500")}, &recordingCalendar{}, fixedNow)

	stream, err := agent.RunStream(context.Background(), "hello")
	if err != nil {
		t.Fatalf("run stream failed: %v", err)
	}

	var terminal error
	for ev := range stream {
		if ev.Err != nil {
			terminal = ev.Err
		}
	}
	if !errors.Is(terminal, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke on the stream, got %v", terminal)
	}
}
