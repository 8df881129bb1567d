// Package tts defines the Speaker interface for Text-to-Speech backends.
//
// A speaker wraps a speech synthesis service (e.g. ElevenLabs) and presents a
// uniform streaming interface. The entry point is Synthesize, which accepts a
// single utterance and returns a channel of raw PCM audio bytes as they become
// available, so playback can begin before synthesis completes.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"
)

// ErrSynthesis indicates the synthesis backend failed or was unreachable.
// Callers treat spoken feedback as best-effort: a synthesis failure must never
// abort the command that triggered it.
var ErrSynthesis = errors.New("tts: synthesis failed")

// Speaker is the abstraction over any TTS backend.
type Speaker interface {
	// Synthesize converts text into audio and returns a channel that emits raw
	// PCM byte slices as they are synthesised. The channel is closed by the
	// implementation when synthesis is complete or when ctx is cancelled; the
	// caller must drain it to avoid blocking internal goroutines.
	//
	// Returns a non-nil error only if synthesis cannot be started. Errors
	// during synthesis are signalled by closing the audio channel early;
	// callers should check ctx.Err() to distinguish cancellation.
	Synthesize(ctx context.Context, text string) (<-chan []byte, error)
}
