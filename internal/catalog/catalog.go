// Package catalog provides read access to the Cloudly song library.
//
// The assistant never mutates the catalog; it only needs song metadata to
// resolve spoken requests like "play bohemian rhapsody" against real titles
// and artists. The library of record lives in the music service, reached over
// HTTP by Fetcher; Cache keeps a process-local copy so a voice command does
// not pay a network round trip on every dispatch.
package catalog

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the music library could not be reached. Callers
// surface this as spoken feedback rather than failing the whole session.
var ErrUnavailable = errors.New("catalog: music library unavailable")

// Song is one entry in the Cloudly library.
type Song struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
	// Duration is the track length in seconds.
	Duration int `json:"duration,omitempty"`
}

// Store is the read interface over the song library.
type Store interface {
	// Songs returns all songs in the library. The returned slice must not be
	// mutated by callers. An empty library yields an empty slice, not an error.
	Songs(ctx context.Context) ([]Song, error)
}
