package memory

import (
	"fmt"
	"strings"
	"testing"
	"time"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestWindow() (*Window, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)}
	return NewWindow(WithClock(clock.Now)), clock
}

func TestWindowNeverExceedsCap(t *testing.T) {
	t.Parallel()

	w, _ := newTestWindow()
	for i := 0; i < 50; i++ {
		w.Update(contractx.RoleUser, fmt.Sprintf("message %d", i))
		if w.Len() > 10 {
			t.Fatalf("window holds %d turns after update %d", w.Len(), i)
		}
	}
	if w.Len() != 10 {
		t.Fatalf("expected full window, got %d turns", w.Len())
	}
}

func TestWindowEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	w, _ := newTestWindow()
	for i := 0; i < 12; i++ {
		w.Update(contractx.RoleUser, fmt.Sprintf("m%d", i))
	}

	summary := w.Summary()
	if strings.Contains(summary, "m0\n") || strings.Contains(summary, "m1\n") {
		t.Fatalf("oldest turns not evicted:\n%s", summary)
	}
	if !strings.HasPrefix(summary, "User: m2") {
		t.Fatalf("unexpected oldest entry:\n%s", summary)
	}
	if !strings.HasSuffix(summary, "User: m11") {
		t.Fatalf("unexpected newest entry:\n%s", summary)
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	t.Parallel()

	w, _ := newTestWindow()
	w.Update(contractx.RoleUser, "a")
	w.Update(contractx.RoleAssistant, "b")

	if got := w.Summary(); got != "User: a\nAssistant: b" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestSummaryEmptyBeforeFirstUpdate(t *testing.T) {
	t.Parallel()

	w, _ := newTestWindow()
	if got := w.Summary(); got != "" {
		t.Fatalf("expected empty summary, got %q", got)
	}
}

func TestSummaryExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	w, clock := newTestWindow()
	w.Update(contractx.RoleUser, "book a meeting")
	w.Update(contractx.RoleAssistant, "which day?")

	clock.Advance(200 * time.Second)

	if got := w.Summary(); got != "" {
		t.Fatalf("expected empty summary after TTL, got %q", got)
	}

	// The expiry clears the window: the next turn starts from scratch.
	w.Update(contractx.RoleUser, "fresh start")
	if w.Len() != 1 {
		t.Fatalf("expected 1 turn after expiry, got %d", w.Len())
	}
	if got := w.Summary(); got != "User: fresh start" {
		t.Fatalf("unexpected summary after expiry: %q", got)
	}
}

func TestSummaryWithinTTLKeepsTurns(t *testing.T) {
	t.Parallel()

	w, clock := newTestWindow()
	w.Update(contractx.RoleUser, "hello")
	clock.Advance(119 * time.Second)

	if got := w.Summary(); got != "User: hello" {
		t.Fatalf("turns dropped before TTL elapsed: %q", got)
	}
}

func TestTTLMeasuredFromLastUpdate(t *testing.T) {
	t.Parallel()

	w, clock := newTestWindow()
	w.Update(contractx.RoleUser, "first")
	clock.Advance(100 * time.Second)
	w.Update(contractx.RoleAssistant, "second")
	clock.Advance(100 * time.Second)

	// 200s since the first turn, but only 100s since the latest one.
	if got := w.Summary(); got == "" {
		t.Fatal("window expired although the last update was recent")
	}
}
