// Package portaudio provides an [audio.Device] backed by the system's default
// audio input via PortAudio.
//
// Captured PCM is buffered in memory and wrapped in a WAV container on Stop so
// the resulting [audio.Utterance] can be submitted directly to a transcription
// gateway. The package assumes [Init] was called once at process start and
// [Terminate] at shutdown.
package portaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
)

const (
	sampleRate = 16000
	frameSize  = 320 // 20 ms at 16 kHz
)

// Init initialises the PortAudio runtime. Call once at process start.
func Init() error { return portaudio.Initialize() }

// Terminate shuts down the PortAudio runtime. Call once at process exit.
func Terminate() error { return portaudio.Terminate() }

// Compile-time assertion that Device implements audio.Device.
var _ audio.Device = (*Device)(nil)

// Device opens the default input device for each capture. It enforces
// exclusivity: only one capture may be open at a time.
type Device struct {
	mu   sync.Mutex
	held bool
}

// NewDevice returns a Device recording from the system default input.
func NewDevice() *Device { return &Device{} }

// Acquire implements [audio.Device]. It opens the default input stream and
// starts buffering immediately in a background goroutine.
func (d *Device) Acquire(ctx context.Context) (audio.Capture, error) {
	d.mu.Lock()
	if d.held {
		d.mu.Unlock()
		return nil, fmt.Errorf("portaudio: %w: capture already in progress", audio.ErrDeviceDenied)
	}
	d.held = true
	d.mu.Unlock()

	release := func() {
		d.mu.Lock()
		d.held = false
		d.mu.Unlock()
	}

	frame := make([]int16, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(frame), frame)
	if err != nil {
		release()
		return nil, fmt.Errorf("portaudio: open input: %w", audio.ErrDeviceDenied)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		release()
		return nil, fmt.Errorf("portaudio: start input: %w", audio.ErrDeviceDenied)
	}

	c := &capture{
		stream:  stream,
		frame:   frame,
		release: release,
		done:    make(chan struct{}),
	}
	c.utterance.CapturedAt = time.Now()
	c.utterance.MIMEType = "audio/wav"
	go c.loop(ctx)
	return c, nil
}

// Frames implements [audio.FrameSource]. It holds the device for as long as
// ctx lives, emitting raw little-endian PCM frames suitable for a streaming
// transcription provider.
func (d *Device) Frames(ctx context.Context) (<-chan []byte, error) {
	d.mu.Lock()
	if d.held {
		d.mu.Unlock()
		return nil, fmt.Errorf("portaudio: %w: capture already in progress", audio.ErrDeviceDenied)
	}
	d.held = true
	d.mu.Unlock()

	release := func() {
		d.mu.Lock()
		d.held = false
		d.mu.Unlock()
	}

	frame := make([]int16, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(frame), frame)
	if err != nil {
		release()
		return nil, fmt.Errorf("portaudio: open input: %w", audio.ErrDeviceDenied)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		release()
		return nil, fmt.Errorf("portaudio: start input: %w", audio.ErrDeviceDenied)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer release()
		defer stream.Close()
		defer stream.Stop()
		for {
			if ctx.Err() != nil {
				return
			}
			if err := stream.Read(); err != nil {
				return
			}
			buf := make([]byte, len(frame)*2)
			for i, s := range frame {
				buf[2*i] = byte(s)
				buf[2*i+1] = byte(s >> 8)
			}
			select {
			case out <- buf:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

var _ audio.FrameSource = (*Device)(nil)

// capture buffers PCM frames until Stop.
type capture struct {
	stream  *portaudio.Stream
	frame   []int16
	release func()
	done    chan struct{}

	mu        sync.Mutex
	pcm       []byte
	stopped   bool
	utterance audio.Utterance
	readErr   error
}

// loop reads frames from the stream into the PCM buffer until the capture is
// stopped or ctx is cancelled.
func (c *capture) loop(ctx context.Context) {
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := c.stream.Read(); err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}

		buf := make([]byte, len(c.frame)*2)
		for i, s := range c.frame {
			buf[2*i] = byte(s)
			buf[2*i+1] = byte(s >> 8)
		}
		c.mu.Lock()
		c.pcm = append(c.pcm, buf...)
		c.mu.Unlock()
	}
}

// Stop implements [audio.Capture]. The device handle is released on the first
// call regardless of read errors; later calls return the same utterance.
func (c *capture) Stop() (audio.Utterance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return c.utterance, c.readErr
	}
	c.stopped = true
	close(c.done)

	c.stream.Stop()
	c.stream.Close()
	c.release()

	c.utterance.Data = audio.EncodeWAV(c.pcm, sampleRate, 1)
	return c.utterance, c.readErr
}
