package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/observe"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
)

// WakePhrases are the trigger phrases, checked case-insensitively as
// substrings of the recognised speech. Near-variants cover common
// misrecognitions of the canonical phrase.
var WakePhrases = []string{"hey cloudly", "hey cloud", "cloudly"}

// wakeRestartBackoff is the fixed delay before reopening the recognition
// source after a transient failure.
const wakeRestartBackoff = time.Second

// Source provides the continuous low-fidelity transcript stream the Listener
// watches for wake phrases.
type Source interface {
	// Open starts recognition and returns a channel of transcript fragments.
	// The channel closes when recognition ends or fails; Open may then be
	// called again. A permanent failure is reported as audio.ErrDeviceDenied.
	Open(ctx context.Context) (<-chan string, error)
}

// Listener watches a Source for wake phrases and triggers a capture session
// on each detection, but only while the assistant is idle. Recognition is
// suspended for the whole capture/processing/speaking span so the microphone
// is free for the session, and re-armed when the machine returns to idle.
type Listener struct {
	source  Source
	machine *Machine
	trigger func(context.Context) error
	metrics *observe.Metrics
	log     *slog.Logger
	backoff time.Duration
	phrases []string

	idleCh chan struct{}
	once   sync.Once
}

// ListenerOption is a functional option for configuring a Listener.
type ListenerOption func(*Listener)

// WithBackoff overrides the restart backoff. Mainly for tests.
func WithBackoff(d time.Duration) ListenerOption {
	return func(l *Listener) {
		if d > 0 {
			l.backoff = d
		}
	}
}

// WithListenerMetrics overrides the metrics instruments.
func WithListenerMetrics(m *observe.Metrics) ListenerOption {
	return func(l *Listener) {
		l.metrics = m
	}
}

// WithPhrases replaces the built-in wake phrases.
func WithPhrases(phrases []string) ListenerOption {
	return func(l *Listener) {
		if len(phrases) > 0 {
			l.phrases = phrases
		}
	}
}

// NewListener creates a Listener that invokes trigger on each wake phrase
// heard while the machine is idle. trigger is typically Session.Start.
func NewListener(machine *Machine, source Source, trigger func(context.Context) error, opts ...ListenerOption) *Listener {
	l := &Listener{
		source:  source,
		machine: machine,
		trigger: trigger,
		log:     slog.Default().With(slog.String("component", "wake")),
		backoff: wakeRestartBackoff,
		phrases: WakePhrases,
		idleCh:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(l)
	}
	if l.metrics == nil {
		l.metrics = observe.DefaultMetrics()
	}
	return l
}

// Run is the listener's main loop. It blocks until ctx is cancelled or the
// source proves permanently unobtainable, in which case it returns nil and
// the assistant degrades to manual triggering only.
func (l *Listener) Run(ctx context.Context) error {
	l.once.Do(func() {
		l.machine.Subscribe(func(_, to State) {
			if to != StateIdle {
				return
			}
			select {
			case l.idleCh <- struct{}{}:
			default:
			}
		})
	})

	for {
		if err := l.awaitIdle(ctx); err != nil {
			return nil
		}

		watchCtx, cancel := context.WithCancel(ctx)
		transcripts, err := l.source.Open(watchCtx)
		if err != nil {
			cancel()
			if errors.Is(err, audio.ErrDeviceDenied) {
				l.log.WarnContext(ctx, "recognition source unobtainable, wake phrase disabled",
					slog.Any("error", err))
				return nil
			}
			l.log.WarnContext(ctx, "recognition source failed, restarting",
				slog.Any("error", err), slog.Duration("backoff", l.backoff))
			if !l.sleep(ctx) {
				return nil
			}
			continue
		}

		ended, fired := l.watch(ctx, transcripts)
		// Cancelling closes the source stream so the device frees up while
		// a capture session or feedback speech holds the pipeline.
		cancel()
		if fired {
			// The wake stream still holds the microphone at this point.
			// Drain to the close, which signals the source has released all
			// resources, before handing the device to the capture session.
			for range transcripts {
			}
			if err := l.trigger(ctx); err != nil {
				l.log.WarnContext(ctx, "wake trigger rejected", slog.Any("error", err))
			}
			continue
		}
		if ended {
			// The stream ended on its own; back off before reopening.
			if !l.sleep(ctx) {
				return nil
			}
		}
	}
}

// watch consumes transcripts until the stream ends, the machine leaves idle,
// or a wake phrase is heard. ended reports that the stream closed by itself;
// fired reports a wake detection, in which case the caller tears the stream
// down and invokes the trigger once the device is free.
func (l *Listener) watch(ctx context.Context, transcripts <-chan string) (ended, fired bool) {
	for {
		select {
		case <-ctx.Done():
			return false, false
		case <-l.idleCh:
			// Drained so a stale notification does not satisfy the next wait.
		case text, ok := <-transcripts:
			if !ok {
				return true, false
			}
			if !l.machine.Is(StateIdle) {
				continue
			}
			if !l.heardWakePhrase(text) {
				continue
			}
			l.metrics.RecordWakeTrigger(ctx)
			l.log.InfoContext(ctx, "wake phrase detected", slog.String("text", text))
			return false, true
		}

		if !l.machine.Is(StateIdle) {
			// Suspend until the pipeline returns to idle.
			return false, false
		}
	}
}

// awaitIdle blocks until the machine is idle. Returns ctx.Err() on cancel.
func (l *Listener) awaitIdle(ctx context.Context) error {
	for {
		if l.machine.Is(StateIdle) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.idleCh:
		}
	}
}

// sleep pauses for the restart backoff. Returns false when ctx was cancelled.
func (l *Listener) sleep(ctx context.Context) bool {
	t := time.NewTimer(l.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (l *Listener) heardWakePhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range l.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
