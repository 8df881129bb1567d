// Package player abstracts the Cloudly playback surface that voice commands
// drive. The assistant only needs the handful of mutations the command
// vocabulary can express plus enough read state to phrase feedback.
package player

import (
	"context"
	"errors"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/catalog"
)

// ErrNoSong indicates a playback mutation that needs a current track was
// invoked with an empty queue.
var ErrNoSong = errors.New("player: no song in queue")

// Status is a snapshot of playback state.
type Status struct {
	// Current is the song at the playhead, or nil when the queue is empty.
	Current *catalog.Song
	Playing bool
	// Volume is the applied playback volume in [0,1].
	Volume float64
}

// Controller is the surface the command dispatcher mutates. Implementations
// must be safe for concurrent use; a remote implementation may block, hence
// the contexts.
type Controller interface {
	// Resume starts or continues playback of the current song.
	Resume(ctx context.Context) error
	// Pause halts playback, keeping the playhead in place.
	Pause(ctx context.Context) error
	// Next advances the queue, wrapping to the start at the end.
	Next(ctx context.Context) error
	// Prev steps the queue back, wrapping to the end at the start.
	Prev(ctx context.Context) error
	// SetVolume applies a playback volume in [0,1].
	SetVolume(ctx context.Context, v float64) error
	// Shuffle reorders the queue and moves the playhead to the new first song.
	Shuffle(ctx context.Context) error
	// Play makes song the current track and starts playback, appending it to
	// the queue if it is not already there.
	Play(ctx context.Context, song catalog.Song) error
	// Now reports the current playback state.
	Now(ctx context.Context) (Status, error)
}
