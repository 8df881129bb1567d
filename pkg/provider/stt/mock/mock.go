// Package mock provides test doubles for the stt.Transcriber and
// stt.StreamProvider interfaces.
//
// Zero values for response fields cause methods to return zero values and nil
// errors. Set Err fields to inject errors. Call records are safe to read after
// the test's goroutines have settled.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
)

// Transcriber is a mock implementation of stt.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Text is returned by Transcribe. Leave empty to simulate silence.
	Text string

	// Err, if non-nil, is returned by Transcribe.
	Err error

	// Calls records the utterances passed to Transcribe, in order.
	Calls []audio.Utterance
}

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(_ context.Context, utt audio.Utterance) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, utt)
	if t.Err != nil {
		return "", t.Err
	}
	return t.Text, nil
}

// CallCount returns the number of Transcribe invocations so far.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}

// StreamProvider is a mock implementation of stt.StreamProvider. Each
// StartStream call returns a fresh [Stream] whose channels the test controls
// via [Stream.EmitPartial] and [Stream.EmitFinal].
type StreamProvider struct {
	mu sync.Mutex

	// StartErr, if non-nil, is returned by StartStream instead of a stream.
	StartErr error

	// Streams records every stream handed out, in order.
	Streams []*Stream

	// StartCalls counts invocations of StartStream.
	StartCalls int
}

// StartStream implements stt.StreamProvider.
func (p *StreamProvider) StartStream(_ context.Context, _ stt.StreamConfig) (stt.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StartCalls++
	if p.StartErr != nil {
		return nil, p.StartErr
	}
	s := NewStream()
	p.Streams = append(p.Streams, s)
	return s, nil
}

// StartCount returns the number of StartStream invocations so far.
func (p *StreamProvider) StartCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.StartCalls
}

// Latest returns the most recently started stream, or nil.
func (p *StreamProvider) Latest() *Stream {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Streams) == 0 {
		return nil
	}
	return p.Streams[len(p.Streams)-1]
}

// Stream is a scriptable stt.Stream.
type Stream struct {
	mu       sync.Mutex
	partials chan stt.Transcript
	finals   chan stt.Transcript
	closed   bool

	// SendCalls records audio chunks passed to SendAudio.
	SendCalls [][]byte
}

// NewStream returns a Stream with buffered transcript channels.
func NewStream() *Stream {
	return &Stream{
		partials: make(chan stt.Transcript, 16),
		finals:   make(chan stt.Transcript, 16),
	}
}

// EmitPartial delivers an interim transcript to the listener under test.
func (s *Stream) EmitPartial(text string) {
	s.partials <- stt.Transcript{Text: text}
}

// EmitFinal delivers a final transcript to the listener under test.
func (s *Stream) EmitFinal(text string) {
	s.finals <- stt.Transcript{Text: text, IsFinal: true}
}

// SendAudio implements stt.Stream.
func (s *Stream) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("mock: stream is closed")
	}
	s.SendCalls = append(s.SendCalls, chunk)
	return nil
}

// SendCount returns how many audio chunks have been delivered so far.
func (s *Stream) SendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.SendCalls)
}

// Partials implements stt.Stream.
func (s *Stream) Partials() <-chan stt.Transcript { return s.partials }

// Finals implements stt.Stream.
func (s *Stream) Finals() <-chan stt.Transcript { return s.finals }

// Close implements stt.Stream. It closes both transcript channels; safe to
// call multiple times.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.partials)
	close(s.finals)
	return nil
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
