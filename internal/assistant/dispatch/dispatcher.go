// Package dispatch turns resolved voice commands into player mutations and
// the spoken feedback line for each outcome.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/observe"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/player"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/command"
)

// Spoken feedback lines. Every dispatch outcome maps to exactly one of these
// (or a formatted variant).
const (
	feedbackResume      = "Resuming music"
	feedbackPause       = "Paused"
	feedbackNext        = "Skipping"
	feedbackPrev        = "Previous song"
	feedbackShuffle     = "Shuffling your queue"
	feedbackFallback    = "I didn't quite get that."
	feedbackLibraryDown = "I can't reach the music library right now."
	feedbackFailure     = "Sorry, something went wrong."
)

// Dispatcher executes commands against the player and produces the feedback
// line to speak. It never retries: a command either lands or the user hears
// an apology and tries again.
type Dispatcher struct {
	player  player.Controller
	songs   Resolver
	metrics *observe.Metrics
	log     *slog.Logger
}

// New creates a Dispatcher. metrics may be nil, in which case the package
// default instruments are used.
func New(p player.Controller, songs Resolver, metrics *observe.Metrics) *Dispatcher {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Dispatcher{
		player:  p,
		songs:   songs,
		metrics: metrics,
		log:     slog.Default().With(slog.String("component", "dispatch")),
	}
}

// Dispatch applies cmd to the player and returns the feedback line to speak.
// The returned error carries the underlying failure for logging; the feedback
// line is valid (and should be spoken) even when the error is non-nil.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd command.Command) (string, error) {
	ctx, span := observe.StartSpan(ctx, "dispatch "+string(cmd.Action))
	defer span.End()

	d.metrics.RecordCommand(ctx, string(cmd.Action))

	switch cmd.Action {
	case command.ActionPlay:
		if cmd.Song != "" {
			return d.playSong(ctx, cmd.Song)
		}
		return d.mutate(ctx, feedbackResume, d.player.Resume)

	case command.ActionPause:
		return d.mutate(ctx, feedbackPause, d.player.Pause)

	case command.ActionNext:
		return d.mutate(ctx, feedbackNext, d.player.Next)

	case command.ActionPrev:
		return d.mutate(ctx, feedbackPrev, d.player.Prev)

	case command.ActionVolume:
		v := command.ClampVolume(cmd.Value)
		if err := d.player.SetVolume(ctx, v/100); err != nil {
			return feedbackFailure, fmt.Errorf("dispatch: set volume: %w", err)
		}
		return fmt.Sprintf("Volume set to %v%%", v), nil

	case command.ActionShuffle:
		return d.mutate(ctx, feedbackShuffle, d.player.Shuffle)

	default:
		// Unknown commands never touch the player.
		if cmd.Message != "" {
			return cmd.Message, nil
		}
		return feedbackFallback, nil
	}
}

// mutate runs a no-argument player mutation and returns its feedback line.
func (d *Dispatcher) mutate(ctx context.Context, feedback string, fn func(context.Context) error) (string, error) {
	if err := fn(ctx); err != nil {
		return feedbackFailure, fmt.Errorf("dispatch: %w", err)
	}
	return feedback, nil
}

// playSong resolves the query against the catalog and starts playback of the
// first match. Library failures leave the player untouched.
func (d *Dispatcher) playSong(ctx context.Context, query string) (string, error) {
	song, found, err := d.songs.Resolve(ctx, query)
	if err != nil {
		d.metrics.RecordGatewayError(ctx, "catalog", "dispatch")
		d.log.ErrorContext(ctx, "song lookup failed", slog.String("query", query), slog.Any("error", err))
		return feedbackLibraryDown, fmt.Errorf("dispatch: resolve %q: %w", query, err)
	}
	if !found {
		return fmt.Sprintf("I couldn't find %s", query), nil
	}
	if err := d.player.Play(ctx, song); err != nil {
		return feedbackFailure, fmt.Errorf("dispatch: play %q: %w", song.Title, err)
	}
	return fmt.Sprintf("Playing %s", song.Title), nil
}
