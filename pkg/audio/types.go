// Package audio defines the capture-side audio types and the Device interface
// the voice pipeline records command utterances through.
//
// The central type is [Utterance]: one bounded audio clip representing a single
// spoken command. Utterances are ephemeral — owned by the capture session from
// start-of-recording until handed to the transcription gateway, and discarded
// after submission regardless of outcome.
package audio

import (
	"context"
	"errors"
	"time"
)

// ErrDeviceDenied is returned by [Device.Acquire] when the environment refuses
// access to the audio input (missing hardware, revoked permission).
var ErrDeviceDenied = errors.New("audio: input device unavailable or access denied")

// Utterance is one bounded audio recording representing a single user command.
type Utterance struct {
	// Data is the encoded audio payload (container format per MIMEType).
	Data []byte

	// MIMEType describes the container of Data (e.g., "audio/webm", "audio/wav").
	MIMEType string

	// CapturedAt marks when recording started.
	CapturedAt time.Time
}

// Empty reports whether the utterance carries no audio at all.
func (u Utterance) Empty() bool { return len(u.Data) == 0 }

// Capture is an open, exclusive audio input handle. It buffers audio from the
// moment of acquisition until [Capture.Stop] is called.
//
// A Capture is a scoped resource: the capture session must call Stop on every
// exit path — success, manual cancel, or error — so the device handle never
// leaks past the end of the session. Stop is idempotent.
type Capture interface {
	// Stop ends buffering, releases the underlying device handle, and returns
	// everything recorded so far. Subsequent calls return the same utterance.
	Stop() (Utterance, error)
}

// Device is the abstraction over an audio input capable of recording one
// utterance at a time.
//
// Implementations must enforce exclusivity: a second Acquire before the first
// Capture is stopped returns an error.
type Device interface {
	// Acquire opens the input device and begins buffering audio immediately.
	// Returns [ErrDeviceDenied] (possibly wrapped) when the environment does
	// not grant access.
	Acquire(ctx context.Context) (Capture, error)
}

// FrameSource is an audio input consumed as a continuous stream of raw PCM
// frames rather than one bounded utterance. The wake-word listener feeds such
// frames into a streaming transcription provider.
type FrameSource interface {
	// Frames opens the input and returns a channel of PCM frames. The channel
	// is closed when ctx is cancelled or the input fails; the device handle is
	// released before the close. Exclusivity rules match [Device.Acquire].
	Frames(ctx context.Context) (<-chan []byte, error)
}
