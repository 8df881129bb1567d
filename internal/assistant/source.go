package assistant

import (
	"context"
	"fmt"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
)

// StreamSource adapts a streaming transcription provider plus a raw PCM frame
// source into a wake-word [Source]: microphone frames are pumped into the
// provider and recognised text fragments (partial and final alike — wake
// detection wants the lowest latency signal available) come out as strings.
type StreamSource struct {
	provider stt.StreamProvider
	frames   audio.FrameSource
	cfg      stt.StreamConfig
}

var _ Source = (*StreamSource)(nil)

// NewStreamSource creates a StreamSource. cfg describes the frame format the
// FrameSource produces.
func NewStreamSource(provider stt.StreamProvider, frames audio.FrameSource, cfg stt.StreamConfig) *StreamSource {
	return &StreamSource{provider: provider, frames: frames, cfg: cfg}
}

// Open implements [Source]. The returned channel closes when ctx is cancelled
// or either the microphone or the provider stream fails; all underlying
// resources are released before the close.
func (s *StreamSource) Open(ctx context.Context) (<-chan string, error) {
	frames, err := s.frames.Frames(ctx)
	if err != nil {
		// ErrDeviceDenied passes through untouched so the listener can tell
		// a permanently unobtainable microphone from a transient failure.
		return nil, err
	}

	stream, err := s.provider.StartStream(ctx, s.cfg)
	if err != nil {
		// Drain until the frame source notices the cancelled ctx.
		go func() {
			for range frames {
			}
		}()
		return nil, fmt.Errorf("assistant: open recognition stream: %w", err)
	}

	// Pump microphone frames into the provider.
	go func() {
		defer stream.Close()
		for chunk := range frames {
			if err := stream.SendAudio(chunk); err != nil {
				return
			}
		}
	}()

	// Merge partial and final transcripts into one text stream. The loop
	// runs until both transcript channels close rather than bailing on ctx
	// cancellation: the close of out is the signal that the microphone and
	// the provider stream have fully wound down, so a consumer can drain to
	// the close and then safely reacquire the device. After cancellation
	// remaining transcripts are dropped instead of sent.
	out := make(chan string, 8)
	go func() {
		defer close(out)
		partials, finals := stream.Partials(), stream.Finals()
		for partials != nil || finals != nil {
			var text string
			select {
			case t, ok := <-partials:
				if !ok {
					partials = nil
					continue
				}
				text = t.Text
			case t, ok := <-finals:
				if !ok {
					finals = nil
					continue
				}
				text = t.Text
			}
			select {
			case out <- text:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}
