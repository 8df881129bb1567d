// Package openai provides a batch transcription gateway backed by the OpenAI
// audio transcription API (whisper-1).
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
)

const defaultModel = oai.AudioModelWhisper1

// Compile-time assertion that Transcriber implements stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// config holds optional configuration for the transcriber.
type config struct {
	baseURL string
	model   string
	timeout time.Duration
}

// Option is a functional option for Transcriber.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Useful for pointing
// at an OpenAI-compatible local server.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithModel overrides the transcription model. Default: whisper-1.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// Transcriber implements stt.Transcriber using the OpenAI API.
type Transcriber struct {
	client oai.Client
	model  string
}

// New constructs a new OpenAI Transcriber. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{model: defaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Transcriber{client: oai.NewClient(reqOpts...), model: cfg.model}, nil
}

// Transcribe implements stt.Transcriber. An empty transcript is returned as
// ("", nil) — silence is a valid outcome, not a failure.
func (t *Transcriber) Transcribe(ctx context.Context, utt audio.Utterance) (string, error) {
	if utt.Empty() {
		return "", nil
	}

	res, err := t.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		Model: t.model,
		File:  oai.File(bytes.NewReader(utt.Data), filenameFor(utt.MIMEType), utt.MIMEType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", stt.ErrTranscription, err)
	}

	return strings.TrimSpace(res.Text), nil
}

// filenameFor derives an upload filename from the utterance MIME type. The
// API infers the container from the extension, so it must match the payload.
func filenameFor(mimeType string) string {
	switch mimeType {
	case "audio/webm":
		return "command.webm"
	case "audio/wav", "audio/x-wav":
		return "command.wav"
	case "audio/mpeg", "audio/mp3":
		return "command.mp3"
	case "audio/ogg":
		return "command.ogg"
	default:
		return "command.webm"
	}
}
