// Package elevenlabs provides an ElevenLabs-backed speaker using the
// ElevenLabs streaming WebSocket API. It implements the tts.Speaker interface.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coder/websocket"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/tts"
)

const (
	wsEndpointFmt    = "wss://api.elevenlabs.io/v1/text-to-speech/%s/stream-input?model_id=%s"
	defaultModel     = "eleven_flash_v2_5"
	defaultOutputFmt = "pcm_16000"
)

// Option is a functional option for configuring the ElevenLabs Speaker.
type Option func(*Speaker)

// WithModel sets the ElevenLabs model ID (e.g. "eleven_flash_v2_5").
func WithModel(model string) Option {
	return func(s *Speaker) {
		s.model = model
	}
}

// WithOutputFormat sets the audio output format (e.g. "pcm_16000", "pcm_24000").
func WithOutputFormat(format string) Option {
	return func(s *Speaker) {
		s.outputFormat = format
	}
}

// WithEndpoint overrides the WebSocket endpoint format string. Used in tests.
func WithEndpoint(format string) Option {
	return func(s *Speaker) {
		s.endpointFmt = format
	}
}

// Speaker implements tts.Speaker backed by the ElevenLabs streaming API.
type Speaker struct {
	apiKey       string
	voiceID      string
	model        string
	outputFormat string
	endpointFmt  string
}

var _ tts.Speaker = (*Speaker)(nil)

// New creates a new ElevenLabs Speaker. apiKey and voiceID must be non-empty.
func New(apiKey, voiceID string, opts ...Option) (*Speaker, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	if voiceID == "" {
		return nil, errors.New("elevenlabs: voiceID must not be empty")
	}
	s := &Speaker{
		apiKey:       apiKey,
		voiceID:      voiceID,
		model:        defaultModel,
		outputFormat: defaultOutputFmt,
		endpointFmt:  wsEndpointFmt,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// ---- WebSocket message types ----

// textMessage is the JSON payload sent to ElevenLabs for each text fragment.
type textMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

// voiceSettings mirrors the ElevenLabs voice_settings object.
type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// audioResponse is the JSON message received from ElevenLabs over the WebSocket.
type audioResponse struct {
	Audio   string `json:"audio"` // base64-encoded PCM
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message,omitempty"`
}

// boiMessage is used for the initial "begin of input" handshake.
type boiMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
	XiAPIKey      string         `json:"xi_api_key"`
	OutputFormat  string         `json:"output_format,omitempty"`
}

// Synthesize opens a WebSocket to ElevenLabs, sends the full utterance, and
// returns a channel emitting raw PCM audio chunks as they arrive.
//
// The returned channel is closed when synthesis is complete or ctx is cancelled.
func (s *Speaker) Synthesize(ctx context.Context, text string) (<-chan []byte, error) {
	if text == "" {
		out := make(chan []byte)
		close(out)
		return out, nil
	}

	wsURL := fmt.Sprintf(s.endpointFmt, s.voiceID, s.model)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", tts.ErrSynthesis, err)
	}

	// Send the initial BOI message to authenticate and configure the stream.
	boi := boiMessage{
		Text: " ", // ElevenLabs requires a non-empty first text value
		VoiceSettings: &voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
		XiAPIKey:     s.apiKey,
		OutputFormat: s.outputFormat,
	}
	boiBytes, _ := json.Marshal(boi)
	if err := conn.Write(ctx, websocket.MessageText, boiBytes); err != nil {
		conn.Close(websocket.StatusInternalError, "failed to send BOI")
		return nil, fmt.Errorf("%w: send BOI: %v", tts.ErrSynthesis, err)
	}

	audioCh := make(chan []byte, 256)

	go func() {
		defer close(audioCh)
		defer conn.Close(websocket.StatusNormalClosure, "done")

		// Start the reader before writing so no audio chunk is missed.
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				_, msg, err := conn.Read(ctx)
				if err != nil {
					return
				}
				var resp audioResponse
				if err := json.Unmarshal(msg, &resp); err != nil {
					continue
				}
				if resp.Audio != "" {
					pcm, err := base64.StdEncoding.DecodeString(resp.Audio)
					if err == nil {
						select {
						case audioCh <- pcm:
						case <-ctx.Done():
							return
						}
					}
				}
				if resp.IsFinal {
					return
				}
			}
		}()

		payload := textMessage{Text: text, VoiceSettings: &voiceSettings{Stability: 0.5, SimilarityBoost: 0.75}}
		msgBytes, _ := json.Marshal(payload)
		if err := conn.Write(ctx, websocket.MessageText, msgBytes); err != nil {
			return
		}

		// Empty text signals end of input and flushes pending synthesis.
		flushBytes, _ := json.Marshal(textMessage{Text: ""})
		_ = conn.Write(ctx, websocket.MessageText, flushBytes)

		select {
		case <-readDone:
		case <-ctx.Done():
		}
	}()

	return audioCh, nil
}
