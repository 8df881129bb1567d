// Package voiceapi is the HTTP client for the assistant's voice command
// endpoint. A capture-side process that does not run the pipeline locally can
// upload an utterance and get back the transcript and resolved command.
package voiceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/command"
)

const (
	commandPath    = "/api/voice/command"
	defaultTimeout = 30 * time.Second
)

// ErrRejected is returned when the server answered with a 4xx status, for
// example because no speech was detected in the upload.
var ErrRejected = errors.New("voiceapi: request rejected")

// ErrServer is returned when the server answered with a 5xx status.
var ErrServer = errors.New("voiceapi: server error")

// Result is the server's answer for one uploaded utterance.
type Result struct {
	// Transcript is the recognized text.
	Transcript string `json:"transcript"`

	// Command is the resolved player command.
	Command command.Command `json:"command"`
}

// serverError mirrors the endpoint's error body.
type serverError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for uploads.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// Client uploads utterances to a remote assistant server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the assistant server at baseURL
// (e.g. "http://localhost:8080"). baseURL must be non-empty.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("voiceapi: baseURL must not be empty")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Process uploads one utterance and returns the transcript and resolved
// command. A 4xx answer is reported as ErrRejected and a 5xx as ErrServer,
// both carrying the server's message.
func (c *Client) Process(ctx context.Context, utt audio.Utterance) (Result, error) {
	if utt.Empty() {
		return Result{}, fmt.Errorf("%w: empty utterance", ErrRejected)
	}

	body, contentType, err := encodeUpload(utt)
	if err != nil {
		return Result{}, fmt.Errorf("voiceapi: encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+commandPath, body)
	if err != nil {
		return Result{}, fmt.Errorf("voiceapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("voiceapi: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var res Result
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return Result{}, fmt.Errorf("voiceapi: decode response: %w", err)
		}
		return res, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Result{}, fmt.Errorf("%w: %s", ErrRejected, readMessage(resp.Body))
	default:
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, readMessage(resp.Body))
	}
}

// encodeUpload builds the multipart body carrying the utterance under the
// "audio" field.
func encodeUpload(utt audio.Utterance) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="audio"; filename="utterance`+extFor(utt.MIMEType)+`"`)
	if utt.MIMEType != "" {
		hdr.Set("Content-Type", utt.MIMEType)
	}
	fw, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(utt.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// extFor maps common utterance containers to filename extensions.
func extFor(mimeType string) string {
	switch mimeType {
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mpeg":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".webm"
	}
}

// readMessage extracts the server's error message, falling back to the raw
// body when it is not the expected JSON shape.
func readMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "unreadable response body"
	}
	var se serverError
	if err := json.Unmarshal(raw, &se); err == nil && se.Message != "" {
		if se.Error != "" {
			return se.Message + ": " + se.Error
		}
		return se.Message
	}
	return strings.TrimSpace(string(raw))
}
