package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	songsPath      = "/api/songs"
	defaultTimeout = 10 * time.Second
)

// FetcherOption is a functional option for configuring a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient overrides the HTTP client used for library requests.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// Fetcher retrieves the song library from the music service over HTTP.
// It implements Store by calling GET /api/songs on every invocation; wrap it
// in a Cache to avoid repeated round trips.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

var _ Store = (*Fetcher)(nil)

// NewFetcher creates a Fetcher for the music service at baseURL
// (e.g. "http://localhost:5000"). baseURL must be non-empty.
func NewFetcher(baseURL string, opts ...FetcherOption) (*Fetcher, error) {
	if baseURL == "" {
		return nil, errors.New("catalog: baseURL must not be empty")
	}
	f := &Fetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Songs fetches the full library from the music service. Any transport or
// decode failure is reported as ErrUnavailable.
func (f *Fetcher) Songs(ctx context.Context) ([]Song, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+songsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var songs []Song
	if err := json.NewDecoder(resp.Body).Decode(&songs); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return songs, nil
}
