package memory

import (
	"strings"
	"sync"
	"time"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

const (
	// maxTurns bounds the window; the oldest turn is evicted FIFO on overflow.
	maxTurns = 10

	// windowTTL is the hard idle limit measured from the most recent update.
	// Once exceeded the whole window is considered abandoned.
	windowTTL = 120 * time.Second
)

// Window is the bounded, time-expiring sequence of turns a session exposes to
// routing decisions. One Window belongs to exactly one session; turns within
// a session are sequential, the mutex only guards against accidental sharing.
type Window struct {
	mu         sync.Mutex
	turns      []contractx.Turn
	lastUpdate time.Time
	now        func() time.Time
}

type Option func(*Window)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Window) {
		if now != nil {
			w.now = now
		}
	}
}

func NewWindow(opts ...Option) *Window {
	w := &Window{
		turns: make([]contractx.Turn, 0, maxTurns),
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Update appends a turn stamped with the current time and evicts the oldest
// turn when the window overflows. It always succeeds.
func (w *Window) Update(role contractx.Role, content string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.turns = append(w.turns, contractx.Turn{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	w.lastUpdate = now

	if len(w.turns) > maxTurns {
		// FIFO eviction regardless of role.
		copy(w.turns, w.turns[1:])
		w.turns = w.turns[:maxTurns]
	}
}

// Summary renders the window as "<role>: <content>" lines, oldest first.
//
// If more than windowTTL has elapsed since the last update the window is
// cleared first and the empty string returned. Expiry is evaluated here, in
// the read path, not by a background sweeper; callers must not assume
// Summary is idempotent across the TTL boundary.
func (w *Window) Summary() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lastUpdate.IsZero() || w.now().Sub(w.lastUpdate) > windowTTL {
		w.turns = w.turns[:0]
		return ""
	}

	lines := make([]string, 0, len(w.turns))
	for _, t := range w.turns {
		lines = append(lines, string(t.Role)+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

// Len reports the current number of recorded turns.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}
