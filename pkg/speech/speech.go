// Package speech converts between audio and text through the OpenAI audio
// endpoints. Incoming audio is raw 16-bit mono PCM; it is wrapped in a WAV
// container before transcription.
package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	BaseURL  string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey   string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	TTSModel string        `envconfig:"TTS_MODEL" split_words:"true" default:"gpt-4o-mini-tts"`
	STTModel string        `envconfig:"STT_MODEL" split_words:"true" default:"whisper-1"`
	Voice    string        `envconfig:"VOICE" split_words:"true" default:"alloy"`
	Language string        `envconfig:"LANGUAGE" split_words:"true" default:"de"`
	Format   string        `envconfig:"FORMAT" split_words:"true" default:"mp3"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Codec implements contract.SpeechCodec.
type Codec struct {
	cfg    Config
	client *http.Client
}

var _ contractx.SpeechCodec = (*Codec)(nil)

func NewCodec(cfg Config) *Codec {
	return &Codec{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Codec) TextToSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = c.cfg.Voice
	}

	body, err := json.Marshal(map[string]any{
		"model":           c.cfg.TTSModel,
		"input":           text,
		"voice":           voice,
		"response_format": c.cfg.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts API returned %d: %s", resp.StatusCode, msg)
	}
	return io.ReadAll(resp.Body)
}

func (c *Codec) SpeechToText(ctx context.Context, audio []byte, sampleRate int) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", c.cfg.STTModel); err != nil {
		return "", fmt.Errorf("build stt request: %w", err)
	}
	if c.cfg.Language != "" {
		if err := mw.WriteField("language", c.cfg.Language); err != nil {
			return "", fmt.Errorf("build stt request: %w", err)
		}
	}
	part, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("build stt request: %w", err)
	}
	if _, err := part.Write(wavContainer(audio, sampleRate)); err != nil {
		return "", fmt.Errorf("build stt request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build stt request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("create stt request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read stt response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stt API returned %d: %s", resp.StatusCode, raw)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("parse stt response: %w", err)
	}
	return out.Text, nil
}

// wavContainer prefixes raw 16-bit mono PCM with a RIFF/WAVE header.
func wavContainer(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * channels * bitsPerSample / 8

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(byteRate))
	binary.Write(&b, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	binary.Write(&b, binary.LittleEndian, uint16(bitsPerSample))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}
