package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
)

const (
	batchEndpoint  = "https://api.deepgram.com/v1/listen"
	batchTimeout   = 30 * time.Second
	maxErrBodySize = 2048
)

// Compile-time assertion that Provider also implements stt.Transcriber.
var _ stt.Transcriber = (*Provider)(nil)

// WithBatchEndpoint overrides the prerecorded endpoint URL. Used in tests.
func WithBatchEndpoint(endpoint string) Option {
	return func(p *Provider) { p.batchEndpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client used for prerecorded requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// batchResponse is the JSON structure returned by the prerecorded API.
type batchResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe submits one recorded utterance to the Deepgram prerecorded API
// and returns its transcript. An utterance with no recognisable speech yields
// an empty string and a nil error.
func (p *Provider) Transcribe(ctx context.Context, utt audio.Utterance) (string, error) {
	if utt.Empty() {
		return "", nil
	}

	reqURL, err := p.buildBatchURL()
	if err != nil {
		return "", fmt.Errorf("%w: build URL: %v", stt.ErrTranscription, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(utt.Data))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", stt.ErrTranscription, err)
	}
	req.Header.Set("Authorization", "Token "+p.apiKey)
	contentType := utt.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", stt.ErrTranscription, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		return "", fmt.Errorf("%w: status %d: %s", stt.ErrTranscription, resp.StatusCode, bytes.TrimSpace(body))
	}

	var out batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", stt.ErrTranscription, err)
	}
	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return out.Results.Channels[0].Alternatives[0].Transcript, nil
}

// buildBatchURL constructs the prerecorded endpoint URL.
func (p *Provider) buildBatchURL() (string, error) {
	endpoint := p.batchEndpoint
	if endpoint == "" {
		endpoint = batchEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", p.model)
	q.Set("language", p.language)
	q.Set("smart_format", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *Provider) client() *http.Client {
	if p.httpClient != nil {
		return p.httpClient
	}
	return &http.Client{Timeout: batchTimeout}
}
