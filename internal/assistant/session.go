package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/assistant/dispatch"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/observe"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/intent"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
)

// DefaultCaptureWindow is how long a capture session records before stopping
// unconditionally. Fixed-window capture is a deliberate simplicity tradeoff
// over voice-activity detection.
const DefaultCaptureWindow = 4000 * time.Millisecond

// ErrBusy is returned when a capture session is requested while another one
// (or its network continuation) is still in flight.
var ErrBusy = errors.New("assistant: session already in flight")

const (
	feedbackMicDenied = "Microphone access denied"
	feedbackFailure   = "Sorry, something went wrong."
)

// SessionOption is a functional option for configuring a Session.
type SessionOption func(*Session)

// WithCaptureWindow overrides the capture window duration.
func WithCaptureWindow(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithMetrics overrides the metrics instruments. Mainly for tests.
func WithMetrics(m *observe.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// Session runs capture attempts: acquire the microphone, buffer audio for the
// capture window (or until toggled off), then hand the utterance to the
// network continuation — transcribe, resolve intent, dispatch, speak. At most
// one attempt is in flight at a time; AssistantState is the gate.
type Session struct {
	machine     *Machine
	device      audio.Device
	transcriber stt.Transcriber
	resolver    intent.Resolver
	dispatcher  *dispatch.Dispatcher
	feedback    *Feedback
	window      time.Duration
	metrics     *observe.Metrics
	log         *slog.Logger

	mu       sync.Mutex
	stop     chan struct{}
	stopOnce *sync.Once
	wg       sync.WaitGroup
}

// NewSession creates a Session with the default 4 s capture window.
func NewSession(
	machine *Machine,
	device audio.Device,
	transcriber stt.Transcriber,
	resolver intent.Resolver,
	dispatcher *dispatch.Dispatcher,
	feedback *Feedback,
	opts ...SessionOption,
) *Session {
	s := &Session{
		machine:     machine,
		device:      device,
		transcriber: transcriber,
		resolver:    resolver,
		dispatcher:  dispatcher,
		feedback:    feedback,
		window:      DefaultCaptureWindow,
		log:         slog.Default().With(slog.String("component", "session")),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Start begins a capture attempt. The assistant must be idle or active;
// anything else returns ErrBusy. A microphone acquisition failure is spoken
// through the feedback channel and returned wrapped around
// audio.ErrDeviceDenied, with the machine still idle.
//
// Start returns as soon as recording is armed; the capture window and the
// network continuation run in the background. Use Wait to block until the
// current attempt has fully resolved.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return ErrBusy
	}
	if !s.machine.Is(StateIdle, StateActive) {
		s.mu.Unlock()
		return ErrBusy
	}

	capture, err := s.device.Acquire(ctx)
	if err != nil {
		s.mu.Unlock()
		s.log.ErrorContext(ctx, "microphone acquisition failed", slog.Any("error", err))
		s.metrics.RecordPipelineRun(ctx, "error")
		go s.feedback.Say(context.WithoutCancel(ctx), feedbackMicDenied)
		return fmt.Errorf("assistant: start capture: %w", err)
	}

	if err := s.machine.To(StateListening); err != nil {
		// Lost the race for the state gate; give the device back.
		if _, serr := capture.Stop(); serr != nil {
			s.log.Warn("releasing device after lost gate", slog.Any("error", serr))
		}
		s.mu.Unlock()
		return ErrBusy
	}

	stop := make(chan struct{})
	s.stop = stop
	s.stopOnce = &sync.Once{}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, capture, stop)
	return nil
}

// Toggle stops the capture early when one is recording, and otherwise starts
// a new attempt. This is the manual trigger behind the mic button.
func (s *Session) Toggle(ctx context.Context) error {
	s.mu.Lock()
	if s.stop != nil && s.machine.Current() == StateListening {
		s.stopOnce.Do(func() { close(s.stop) })
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.Start(ctx)
}

// Wait blocks until the attempt in flight (if any) has fully resolved,
// including its network continuation and feedback speech.
func (s *Session) Wait() {
	s.wg.Wait()
}

// run owns one capture attempt end to end.
func (s *Session) run(ctx context.Context, capture audio.Capture, stop chan struct{}) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		if s.stop == stop {
			s.stop = nil
			s.stopOnce = nil
		}
		s.mu.Unlock()
	}()

	runID := uuid.NewString()
	log := s.log.With(slog.String("run_id", runID))
	s.metrics.ActiveSessions.Add(ctx, 1)
	defer s.metrics.ActiveSessions.Add(ctx, -1)

	timer := time.NewTimer(s.window)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-stop:
	case <-ctx.Done():
	}

	// Stopping the capture releases the device handle on every path.
	if err := s.machine.To(StateProcessing); err != nil {
		log.Error("entering processing", slog.Any("error", err))
	}
	utt, err := capture.Stop()
	if err != nil {
		log.ErrorContext(ctx, "capture stop failed", slog.Any("error", err))
		s.metrics.RecordPipelineRun(ctx, "error")
		s.feedback.Say(ctx, feedbackFailure)
		return
	}

	s.continuation(ctx, log, utt)
}

// continuation is the network half of the pipeline: transcribe the utterance,
// resolve the command, dispatch it, speak the outcome. Every failure is
// converted to a spoken apology and the machine collapses back to idle; no
// call is retried.
func (s *Session) continuation(ctx context.Context, log *slog.Logger, utt audio.Utterance) {
	ctx, span := observe.StartSpan(ctx, "voice pipeline")
	defer span.End()
	pipelineStart := time.Now()

	start := time.Now()
	transcript, err := s.transcriber.Transcribe(ctx, utt)
	s.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		log.ErrorContext(ctx, "transcription failed", slog.Any("error", err))
		s.metrics.RecordGatewayError(ctx, "stt", "transcription")
		s.metrics.RecordPipelineRun(ctx, "error")
		s.feedback.Say(ctx, feedbackFailure)
		return
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		// No speech detected: a valid terminal condition, ended silently.
		log.InfoContext(ctx, "no speech detected")
		s.metrics.RecordPipelineRun(ctx, "silent")
		s.toIdle(log)
		return
	}
	log.InfoContext(ctx, "transcribed", slog.String("transcript", transcript))

	start = time.Now()
	cmd, err := s.resolver.Resolve(ctx, transcript)
	s.metrics.IntentDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		log.ErrorContext(ctx, "intent resolution failed", slog.Any("error", err))
		s.metrics.RecordGatewayError(ctx, "intent", "intent")
		s.metrics.RecordPipelineRun(ctx, "error")
		s.feedback.Say(ctx, feedbackFailure)
		return
	}
	log.InfoContext(ctx, "resolved command",
		slog.String("action", string(cmd.Action)), slog.String("song", cmd.Song))

	if err := s.machine.To(StateActive); err != nil {
		log.Error("entering active", slog.Any("error", err))
	}

	line, err := s.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		log.ErrorContext(ctx, "dispatch failed", slog.Any("error", err))
		s.metrics.RecordPipelineRun(ctx, "error")
	} else {
		s.metrics.RecordPipelineRun(ctx, "ok")
	}
	s.metrics.PipelineDuration.Record(ctx, time.Since(pipelineStart).Seconds())

	// The feedback line is spoken even when dispatch failed: the apology is
	// part of the contract.
	s.feedback.Say(ctx, line)
}

// toIdle collapses the machine back to idle without speaking.
func (s *Session) toIdle(log *slog.Logger) {
	if s.machine.Current() == StateIdle {
		return
	}
	if err := s.machine.To(StateIdle); err != nil {
		log.Warn("returning to idle", slog.Any("error", err))
	}
}
