// Package server exposes the assistant over WebSocket. Each connection is
// one session: it gets its own context window and pipeline, while the
// dispatcher behind them is shared.
package server

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/pipeline"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// processingErrorMarker is the literal payload a client receives when a turn
// fails. Clients key on this exact string.
const processingErrorMarker = "[Error during processing]"

type Config struct {
	Addr       string `envconfig:"ADDR" default:":8765"`
	SampleRate int    `envconfig:"SAMPLE_RATE" default:"16000"`
}

// PipelineFactory builds one fresh pipeline (with its own context window)
// per connection.
type PipelineFactory func() *pipeline.Pipeline

type Server struct {
	cfg      Config
	factory  PipelineFactory
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

func New(cfg Config, factory PipelineFactory) *Server {
	s := &Server{
		cfg:     cfg,
		factory: factory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 16,
			WriteBufferSize: 1 << 16,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.httpSrv = &http.Server{Addr: cfg.Addr, Handler: mux}
	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("websocket server listening")
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// safeConn serializes writes; gorilla connections allow one concurrent
// writer only.
type safeConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *safeConn) writeText(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

type textRequest struct {
	Text string `json:"text"`
}

type textResponse struct {
	HandledBy string `json:"handled_by"`
	Text      string `json:"text"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sc := &safeConn{conn: conn}
	pl := s.factory()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("session opened")

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("session closed unexpectedly")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.handleAudio(r.Context(), sc, pl, payload)
		case websocket.TextMessage:
			s.handleText(r.Context(), sc, pl, payload)
		}
	}
}

// handleAudio runs one spoken turn. The response is the synthesized audio,
// base64-encoded in a text frame; on failure the client gets the error
// marker instead.
func (s *Server) handleAudio(ctx context.Context, sc *safeConn, pl *pipeline.Pipeline, audio []byte) {
	result, speech, err := pl.RunAudio(ctx, audio, s.cfg.SampleRate)
	if err != nil {
		log.Error().Err(err).Msg("audio turn failed")
		s.writeError(sc)
		return
	}

	if speech == nil {
		// Synthesis degraded; fall back to the text protocol.
		s.writeJSON(sc, textResponse{HandledBy: result.HandledBy, Text: result.Speech})
		return
	}
	if err := sc.writeText([]byte(base64.StdEncoding.EncodeToString(speech))); err != nil {
		log.Warn().Err(err).Msg("write audio response failed")
	}
}

func (s *Server) handleText(ctx context.Context, sc *safeConn, pl *pipeline.Pipeline, payload []byte) {
	var req textRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.Text == "" {
		s.writeError(sc)
		return
	}

	result, err := pl.RunText(ctx, req.Text)
	if err != nil {
		log.Error().Err(err).Msg("text turn failed")
		s.writeError(sc)
		return
	}
	s.writeJSON(sc, textResponse{HandledBy: result.HandledBy, Text: result.Speech})
}

func (s *Server) writeJSON(sc *safeConn, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.writeError(sc)
		return
	}
	if err := sc.writeText(payload); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}

func (s *Server) writeError(sc *safeConn) {
	if err := sc.writeText([]byte(processingErrorMarker)); err != nil {
		log.Warn().Err(err).Msg("write error marker failed")
	}
}
