// Package pipeline drives one session's turns end to end: read the context
// summary, dispatch, accumulate the streamed response, sanitize it for
// speech, and record the exchange. A pipeline owns exactly one context
// window and serializes its turns.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/memory"
)

// State is the lifecycle of a single turn.
type State string

const (
	StateAwaitingInput State = "AWAITING_INPUT"
	StateDispatched    State = "DISPATCHED"
	StateStreaming     State = "STREAMING"
	StateComplete      State = "COMPLETE"
	StateError         State = "ERROR"
)

// Result is one completed turn.
type Result struct {
	HandledBy string
	// Raw is the accumulated response text before speech sanitization.
	Raw string
	// Speech is the sanitized, speakable rendition of Raw.
	Speech string
}

type Pipeline struct {
	mu         sync.Mutex
	dispatcher contractx.Dispatcher
	window     *memory.Window
	codec      contractx.SpeechCodec
	voice      string
	state      State
}

type Option func(*Pipeline)

// WithSpeechCodec enables the audio path. Without it RunAudio fails and the
// text paths are unaffected.
func WithSpeechCodec(codec contractx.SpeechCodec, voice string) Option {
	return func(p *Pipeline) {
		p.codec = codec
		p.voice = voice
	}
}

func New(dispatcher contractx.Dispatcher, window *memory.Window, opts ...Option) *Pipeline {
	p := &Pipeline{
		dispatcher: dispatcher,
		window:     window,
		state:      StateAwaitingInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// State reports the lifecycle state of the turn in flight, or of the last
// turn when the pipeline is idle.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RunText processes one text turn and returns the full response.
func (p *Pipeline) RunText(ctx context.Context, text string) (Result, error) {
	return p.RunTextStream(ctx, text, nil)
}

// RunTextStream processes one text turn, invoking onChunk for every raw text
// fragment in production order. The exchange is recorded in the context
// window only after the response completed; a failed turn leaves the window
// untouched.
func (p *Pipeline) RunTextStream(ctx context.Context, text string, onChunk func(chunk string)) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	summary := p.window.Summary()

	p.state = StateDispatched
	dispatched, err := p.dispatcher.DispatchStream(ctx, text, summary)
	if err != nil {
		p.state = StateError
		return Result{}, err
	}

	p.state = StateStreaming
	raw, err := drain(dispatched.Stream, onChunk)
	if err != nil {
		p.state = StateError
		return Result{}, err
	}
	if strings.TrimSpace(raw) == "" {
		p.state = StateError
		return Result{}, fmt.Errorf("%w: handler=%s", contractx.ErrNoOutput, dispatched.HandledBy)
	}

	// Record the exchange as a pair so the window never holds a user turn
	// without its answer.
	p.window.Update(contractx.RoleUser, text)
	p.window.Update(contractx.RoleAssistant, raw)
	p.state = StateComplete

	log.Debug().
		Str("handled_by", dispatched.HandledBy).
		Int("window_len", p.window.Len()).
		Msg("turn complete")

	return Result{
		HandledBy: dispatched.HandledBy,
		Raw:       raw,
		Speech:    Sanitize(raw),
	}, nil
}

// RunAudio processes one spoken turn: transcribe, run the text turn, then
// synthesize the sanitized response. A transcription failure aborts before
// dispatch; a synthesis failure degrades to a recorded but silent turn.
func (p *Pipeline) RunAudio(ctx context.Context, audio []byte, sampleRate int) (Result, []byte, error) {
	if p.codec == nil {
		return Result{}, nil, fmt.Errorf("%w: no speech codec configured", contractx.ErrCodec)
	}

	text, err := p.codec.SpeechToText(ctx, audio, sampleRate)
	if err != nil {
		log.Warn().Err(err).Msg("transcription failed, dropping turn")
		return Result{}, nil, fmt.Errorf("%w: transcribe: %v", contractx.ErrCodec, err)
	}

	result, err := p.RunText(ctx, text)
	if err != nil {
		return Result{}, nil, err
	}

	speech, err := p.codec.TextToSpeech(ctx, result.Speech, p.voice)
	if err != nil {
		log.Warn().Err(err).Msg("synthesis failed, returning text only")
		return result, nil, nil
	}
	return result, speech, nil
}

// drain consumes a dispatch stream into the accumulated response, forwarding
// each fragment to onChunk. A stream error is terminal and discards the
// partial accumulation.
func drain(stream <-chan contractx.StreamEvent, onChunk func(chunk string)) (string, error) {
	var b strings.Builder
	for ev := range stream {
		if ev.Err != nil {
			return "", ev.Err
		}
		b.WriteString(ev.Text)
		if onChunk != nil && ev.Text != "" {
			onChunk(ev.Text)
		}
	}
	return b.String(), nil
}
