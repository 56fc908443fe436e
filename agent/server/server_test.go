package server

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/memory"
	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/pipeline"
)

type fakeDispatcher struct {
	output string
	err    error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, text, summary string) (contractx.DispatchResult, error) {
	return d.DispatchStream(ctx, text, summary)
}

func (d *fakeDispatcher) DispatchStream(context.Context, string, string) (contractx.DispatchResult, error) {
	if d.err != nil {
		return contractx.DispatchResult{}, d.err
	}
	out := make(chan contractx.StreamEvent, 1)
	out <- contractx.StreamEvent{Text: d.output}
	close(out)
	return contractx.DispatchResult{HandledBy: contractx.CoordinatorName, Stream: out}, nil
}

type fakeCodec struct {
	transcript string
	sttErr     error
	audio      []byte
}

func (c *fakeCodec) SpeechToText(context.Context, []byte, int) (string, error) {
	return c.transcript, c.sttErr
}

func (c *fakeCodec) TextToSpeech(context.Context, string, string) ([]byte, error) {
	return c.audio, nil
}

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(s.handleWS))
	t.Cleanup(ts.Close)

	url := "ws://" + strings.TrimPrefix(ts.URL, "http://")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newServer(dispatcher contractx.Dispatcher, codec contractx.SpeechCodec) *Server {
	factory := func() *pipeline.Pipeline {
		opts := []pipeline.Option{}
		if codec != nil {
			opts = append(opts, pipeline.WithSpeechCodec(codec, "alloy"))
		}
		return pipeline.New(dispatcher, memory.NewWindow(), opts...)
	}
	return New(Config{Addr: ":0", SampleRate: 16000}, factory)
}

func TestAudioTurnReturnsBase64Audio(t *testing.T) {
	t.Parallel()

	wantAudio := []byte{0xde, 0xad, 0xbe, 0xef}
	s := newServer(&fakeDispatcher{output: "Hello!"}, &fakeCodec{transcript: "hi", audio: wantAudio})
	conn := dial(t, s)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x1}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msgType, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("expected a text frame, got type %d", msgType)
	}
	decoded, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if string(decoded) != string(wantAudio) {
		t.Fatalf("unexpected audio payload: %v", decoded)
	}
}

func TestFailedAudioTurnReturnsErrorMarker(t *testing.T) {
	t.Parallel()

	s := newServer(&fakeDispatcher{output: "never"}, &fakeCodec{sttErr: errors.New("bad audio")})
	conn := dial(t, s)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x1}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(payload) != "[Error during processing]" {
		t.Fatalf("expected the error marker, got %q", payload)
	}
}

func TestTextTurnReturnsJSONResponse(t *testing.T) {
	t.Parallel()

	s := newServer(&fakeDispatcher{output: "Hello!"}, nil)
	conn := dial(t, s)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"hi"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var resp textResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Text != "Hello!" || resp.HandledBy != contractx.CoordinatorName {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestMalformedTextFrameReturnsErrorMarker(t *testing.T) {
	t.Parallel()

	s := newServer(&fakeDispatcher{output: "Hello!"}, nil)
	conn := dial(t, s)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(payload) != "[Error during processing]" {
		t.Fatalf("expected the error marker, got %q", payload)
	}
}

func TestDispatchFailureReturnsErrorMarker(t *testing.T) {
	t.Parallel()

	s := newServer(&fakeDispatcher{err: errors.New("routing down")}, nil)
	conn := dial(t, s)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"hi"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(payload) != "[Error during processing]" {
		t.Fatalf("expected the error marker, got %q", payload)
	}
}
