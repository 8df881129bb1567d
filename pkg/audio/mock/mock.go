// Package mock provides in-memory mock implementations of the [audio.Device],
// [audio.Capture] and [audio.FrameSource] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so that
// tests can assert on call counts, and they expose exported fields that the
// test can set to control return values.
//
// Typical usage:
//
//	dev := &mock.Device{
//	    Utterance: audio.Utterance{Data: []byte("clip"), MIMEType: "audio/webm"},
//	}
//	cap, err := dev.Acquire(ctx)
//	utt, _ := cap.Stop()
package mock

import (
	"context"
	"sync"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
)

// Device is a mock implementation of [audio.Device].
// Set the exported fields before use; inspect the call counters after.
type Device struct {
	mu sync.Mutex

	// Utterance is returned by Stop on captures acquired from this device.
	Utterance audio.Utterance

	// AcquireErr, if non-nil, is returned by Acquire instead of a capture.
	AcquireErr error

	// StopErr, if non-nil, is returned by Stop alongside the utterance.
	StopErr error

	// AcquireCalls counts invocations of Acquire.
	AcquireCalls int

	// FramesErr, if non-nil, is returned by Frames instead of a channel.
	FramesErr error

	// FramesCalls counts invocations of Frames.
	FramesCalls int

	// held reports whether a capture or frame stream from this device is
	// currently open.
	held bool
}

var _ audio.FrameSource = (*Device)(nil)

// Acquire implements [audio.Device]. It enforces exclusivity like a real
// device: acquiring while a previous capture is still open returns
// [audio.ErrDeviceDenied].
func (d *Device) Acquire(_ context.Context) (audio.Capture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.AcquireCalls++
	if d.AcquireErr != nil {
		return nil, d.AcquireErr
	}
	if d.held {
		return nil, audio.ErrDeviceDenied
	}
	d.held = true
	return &Capture{device: d, utterance: d.Utterance, stopErr: d.StopErr}, nil
}

// Frames implements [audio.FrameSource] with the same exclusivity as Acquire.
// The returned channel carries no frames; it closes when ctx is cancelled,
// after the device has been released.
func (d *Device) Frames(ctx context.Context) (<-chan []byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.FramesCalls++
	if d.FramesErr != nil {
		return nil, d.FramesErr
	}
	if d.held {
		return nil, audio.ErrDeviceDenied
	}
	d.held = true

	out := make(chan []byte)
	go func() {
		<-ctx.Done()
		d.mu.Lock()
		d.held = false
		d.mu.Unlock()
		close(out)
	}()
	return out, nil
}

// Held reports whether a capture from this device is currently open.
// After any capture session ends this must report false.
func (d *Device) Held() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.held
}

// Capture is the mock capture handle returned by [Device.Acquire].
type Capture struct {
	mu        sync.Mutex
	device    *Device
	utterance audio.Utterance
	stopErr   error

	// StopCalls counts invocations of Stop.
	StopCalls int

	stopped bool
}

// Stop implements [audio.Capture]. It releases the device on first call and
// is idempotent thereafter.
func (c *Capture) Stop() (audio.Utterance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.StopCalls++
	if !c.stopped {
		c.stopped = true
		c.device.mu.Lock()
		c.device.held = false
		c.device.mu.Unlock()
	}
	return c.utterance, c.stopErr
}
