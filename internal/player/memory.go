package player

import (
	"context"
	"math/rand"
	"sync"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/catalog"
)

// Memory is an in-process Controller backed by a song queue. It is the
// playback model used when the assistant runs embedded in the app process.
type Memory struct {
	mu      sync.Mutex
	queue   []catalog.Song
	index   int
	playing bool
	volume  float64
	liked   map[string]bool
}

var _ Controller = (*Memory)(nil)

// NewMemory creates a Memory player with the given starting queue and a
// default volume of 0.75.
func NewMemory(queue []catalog.Song) *Memory {
	return &Memory{
		queue:  append([]catalog.Song(nil), queue...),
		volume: 0.75,
		liked:  make(map[string]bool),
	}
}

func (m *Memory) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return ErrNoSong
	}
	m.playing = true
	return nil
}

func (m *Memory) Pause(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	return nil
}

func (m *Memory) Next(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return ErrNoSong
	}
	m.index = (m.index + 1) % len(m.queue)
	m.playing = true
	return nil
}

func (m *Memory) Prev(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return ErrNoSong
	}
	m.index = (m.index - 1 + len(m.queue)) % len(m.queue)
	m.playing = true
	return nil
}

func (m *Memory) SetVolume(ctx context.Context, v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	m.volume = v
	return nil
}

func (m *Memory) Shuffle(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return ErrNoSong
	}
	rand.Shuffle(len(m.queue), func(i, j int) {
		m.queue[i], m.queue[j] = m.queue[j], m.queue[i]
	})
	m.index = 0
	m.playing = true
	return nil
}

func (m *Memory) Play(ctx context.Context, song catalog.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.queue {
		if s.ID == song.ID {
			m.index = i
			m.playing = true
			return nil
		}
	}
	m.queue = append(m.queue, song)
	m.index = len(m.queue) - 1
	m.playing = true
	return nil
}

func (m *Memory) Now(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{Playing: m.playing, Volume: m.volume}
	if len(m.queue) > 0 {
		song := m.queue[m.index]
		st.Current = &song
	}
	return st, nil
}

// ToggleLike flips the liked flag for a song and reports the new value.
func (m *Memory) ToggleLike(songID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.liked[songID] = !m.liked[songID]
	return m.liked[songID]
}
