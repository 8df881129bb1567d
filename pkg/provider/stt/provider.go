// Package stt defines the gateway interfaces for Speech-to-Text backends.
//
// Two shapes are exposed:
//
//   - [Transcriber] is the batch gateway used by the command pipeline: one
//     bounded utterance in, one plain transcript out. An empty transcript is
//     a valid result meaning "no speech detected", not an error.
//   - [StreamProvider] is the continuous gateway used by the wake-word
//     listener: a live audio stream in, lazy partial and final transcripts
//     out.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
)

// ErrTranscription marks an upstream speech-service failure (network error,
// non-2xx status, undecodable response). Callers convert it to a spoken
// apology; it never carries partial transcript text.
var ErrTranscription = errors.New("stt: transcription failed")

// Transcriber is the batch transcription gateway.
type Transcriber interface {
	// Transcribe submits one utterance and returns its transcript.
	// An empty string with a nil error signifies silence — a valid,
	// non-error outcome. Failures are wrapped in [ErrTranscription].
	Transcribe(ctx context.Context, utt audio.Utterance) (string, error)
}

// Transcript is a single recognition result from a streaming session.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// IsFinal indicates whether this is a final (authoritative) or partial
	// (interim) transcript.
	IsFinal bool

	// Confidence is the overall confidence score (0.0–1.0). May be zero if
	// the provider does not report confidence.
	Confidence float64
}

// StreamConfig describes the audio format for a new streaming session.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz.
	SampleRate int

	// Channels is the number of audio channels. 1 = mono.
	Channels int

	// Language is the BCP-47 language tag for recognition (e.g., "en-US").
	// Empty lets the provider auto-detect, if supported.
	Language string
}

// Stream is an open streaming transcription session.
//
// Callers must call Close when the session is no longer needed. Failing to do
// so may leak goroutines and network connections inside the provider
// implementation. All methods must be safe for concurrent use.
type Stream interface {
	// SendAudio delivers a chunk of raw PCM audio bytes to the provider.
	// Calling SendAudio after Close returns an error.
	SendAudio(chunk []byte) error

	// Partials returns a read-only channel emitting low-latency interim
	// transcripts. Closed when the session ends.
	Partials() <-chan Transcript

	// Finals returns a read-only channel emitting authoritative transcripts.
	// Closed when the session ends.
	Finals() <-chan Transcript

	// Close terminates the session, flushes pending audio, and releases all
	// associated resources. Calling Close more than once is safe.
	Close() error
}

// StreamProvider is the abstraction over a continuous-recognition backend.
type StreamProvider interface {
	// StartStream opens a new streaming transcription session. The returned
	// Stream is ready to accept audio immediately. The caller owns the Stream
	// and must call Close when done.
	StartStream(ctx context.Context, cfg StreamConfig) (Stream, error)
}
