// Package mock provides a scriptable tts.Speaker for tests.
package mock

import (
	"context"
	"sync"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/tts"
)

// Speaker is a mock tts.Speaker. Configure Chunks and Err before use; Calls
// records every synthesised text in order.
type Speaker struct {
	mu sync.Mutex

	// Chunks is the audio emitted on the returned channel for each call.
	Chunks [][]byte
	// Err, if non-nil, is returned from Synthesize instead of a channel.
	Err error
	// Block, if non-nil, delays channel close until the channel is closed by
	// the test or ctx is cancelled. Used to exercise interruption paths.
	Block chan struct{}

	Calls []string
}

var _ tts.Speaker = (*Speaker)(nil)

func (s *Speaker) Synthesize(ctx context.Context, text string) (<-chan []byte, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, text)
	err := s.Err
	chunks := s.Chunks
	block := s.Block
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	out := make(chan []byte, len(chunks))
	go func() {
		defer close(out)
		for _, c := range chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
		if block != nil {
			select {
			case <-block:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// CallCount returns how many times Synthesize was invoked.
func (s *Speaker) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// LastText returns the most recently synthesised text, or "" if none.
func (s *Speaker) LastText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Calls) == 0 {
		return ""
	}
	return s.Calls[len(s.Calls)-1]
}
