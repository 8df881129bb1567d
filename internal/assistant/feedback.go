package assistant

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/observe"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/tts"
)

// Feedback speaks terminal pipeline conditions. It drives the machine to
// StateSpeaking for the duration of playback and back to StateIdle after,
// and guarantees at most one utterance is audible at a time: a new Say
// cancels any in-flight speech before starting.
type Feedback struct {
	machine *Machine
	speaker tts.Speaker
	metrics *observe.Metrics
	log     *slog.Logger

	runMu  sync.Mutex // serialises utterances
	mu     sync.Mutex // guards cancel
	cancel context.CancelFunc
}

// NewFeedback creates a Feedback over speaker. metrics may be nil to use the
// package defaults.
func NewFeedback(machine *Machine, speaker tts.Speaker, metrics *observe.Metrics) *Feedback {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Feedback{
		machine: machine,
		speaker: speaker,
		metrics: metrics,
		log:     slog.Default().With(slog.String("component", "feedback")),
	}
}

// Say synthesises and plays text, blocking until playback completes or ctx is
// cancelled. Synthesis failures are logged and swallowed: feedback is
// best-effort and must never fail the command that produced it. The machine
// always lands back in StateIdle.
func (f *Feedback) Say(ctx context.Context, text string) {
	if text == "" {
		f.toIdle()
		return
	}

	// Cancel whatever is currently audible, then wait for it to wind down.
	f.Interrupt()
	f.runMu.Lock()
	defer f.runMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()
	defer func() {
		cancel()
		f.mu.Lock()
		f.cancel = nil
		f.mu.Unlock()
	}()

	// Armed before the transition attempt: a failed move into speaking must
	// still collapse the machine back to idle rather than leave it wedged in
	// whatever state it was in.
	defer f.toIdle()
	if err := f.machine.To(StateSpeaking); err != nil {
		f.log.WarnContext(ctx, "cannot enter speaking state", slog.Any("error", err))
		return
	}

	start := time.Now()
	audio, err := f.speaker.Synthesize(ctx, text)
	if err != nil {
		f.metrics.RecordGatewayError(ctx, "tts", "speech")
		f.log.ErrorContext(ctx, "speech synthesis failed",
			slog.String("text", text), slog.Any("error", err))
		return
	}

	// Draining the channel stands in for playback hand-off; the synthesis
	// goroutine paces the chunks.
	for range audio {
	}
	f.metrics.SpeechDuration.Record(ctx, time.Since(start).Seconds())
}

// Interrupt cancels any in-flight speech. It does not block.
func (f *Feedback) Interrupt() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
}

// toIdle forces the machine back to idle, tolerating the case where it is
// already there.
func (f *Feedback) toIdle() {
	if f.machine.Current() == StateIdle {
		return
	}
	if err := f.machine.To(StateIdle); err != nil {
		f.log.Warn("cannot return to idle", slog.Any("error", err))
	}
}
