package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/assistant/dispatch"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/catalog"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/observe"
	"github.com/ShridharB-cloud/soundwave-dreams/internal/player"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/audio"
	audiomock "github.com/ShridharB-cloud/soundwave-dreams/pkg/audio/mock"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/command"
	intentmock "github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/intent/mock"
	"github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt"
	sttmock "github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/stt/mock"
	ttsmock "github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/tts/mock"
)

// catalogStore serves a fixed in-memory library for session tests.
type catalogStore struct {
	songs []catalog.Song
}

func (c *catalogStore) Songs(ctx context.Context) ([]catalog.Song, error) {
	return c.songs, nil
}

// pipeline bundles everything a session test needs to assert on.
type pipeline struct {
	machine     *Machine
	device      *audiomock.Device
	transcriber *sttmock.Transcriber
	resolver    *intentmock.Resolver
	speaker     *ttsmock.Speaker
	player      *player.Memory
	session     *Session

	mu          sync.Mutex
	transitions []State
}

func (p *pipeline) seen() []State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]State(nil), p.transitions...)
}

func newTestPipeline(t *testing.T, window time.Duration) *pipeline {
	t.Helper()

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	library := []catalog.Song{
		{ID: "1", Title: "Bohemian Rhapsody", Artist: "Queen"},
		{ID: "2", Title: "Hotel California", Artist: "Eagles"},
	}

	p := &pipeline{
		machine: NewMachine(),
		device: &audiomock.Device{
			Utterance: audio.Utterance{Data: []byte("pcm"), MIMEType: "audio/wav"},
		},
		transcriber: &sttmock.Transcriber{},
		resolver:    &intentmock.Resolver{},
		speaker:     &ttsmock.Speaker{},
		player:      player.NewMemory(library),
	}
	p.machine.Subscribe(func(_, to State) {
		p.mu.Lock()
		p.transitions = append(p.transitions, to)
		p.mu.Unlock()
	})

	d := dispatch.New(p.player, dispatch.NewSubstringResolver(&catalogStore{songs: library}), metrics)
	feedback := NewFeedback(p.machine, p.speaker, metrics)
	p.session = NewSession(
		p.machine, p.device, p.transcriber, p.resolver, d, feedback,
		WithCaptureWindow(window), WithMetrics(metrics),
	)
	return p
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSession_WakeScenario(t *testing.T) {
	p := newTestPipeline(t, 20*time.Millisecond)
	p.transcriber.Text = "play bohemian rhapsody"
	p.resolver.Command = command.Command{Action: command.ActionPlay, Song: "bohemian rhapsody"}

	if err := p.session.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := p.machine.Current(); got != StateListening {
		t.Errorf("state after Start = %s, want listening", got)
	}
	p.session.Wait()

	want := []State{StateListening, StateProcessing, StateActive, StateSpeaking, StateIdle}
	seen := p.seen()
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", seen, want)
		}
	}

	if got := p.speaker.LastText(); got != "Playing Bohemian Rhapsody" {
		t.Errorf("spoken feedback = %q", got)
	}
	st, _ := p.player.Now(context.Background())
	if st.Current == nil || st.Current.Title != "Bohemian Rhapsody" || !st.Playing {
		t.Errorf("player state = %+v", st)
	}
	if p.device.Held() {
		t.Error("device handle leaked past session end")
	}
}

func TestSession_DoubleStartRejected(t *testing.T) {
	p := newTestPipeline(t, 100*time.Millisecond)

	if err := p.session.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.session.Start(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Start: got %v, want ErrBusy", err)
	}
	p.session.Toggle(context.Background()) // stop early
	p.session.Wait()
}

func TestSession_DeviceDenied(t *testing.T) {
	p := newTestPipeline(t, 20*time.Millisecond)
	p.device.AcquireErr = audio.ErrDeviceDenied

	err := p.session.Start(context.Background())
	if !errors.Is(err, audio.ErrDeviceDenied) {
		t.Fatalf("Start: got %v, want ErrDeviceDenied", err)
	}

	// The denial is spoken and the machine lands back in idle.
	waitFor(t, func() bool { return p.speaker.CallCount() == 1 })
	if got := p.speaker.LastText(); got != "Microphone access denied" {
		t.Errorf("spoken feedback = %q", got)
	}
	waitFor(t, func() bool { return p.machine.Current() == StateIdle })
	if p.transcriber.CallCount() != 0 {
		t.Error("denied capture must not reach transcription")
	}
}

func TestSession_EmptyTranscriptEndsSilently(t *testing.T) {
	p := newTestPipeline(t, 20*time.Millisecond)
	p.transcriber.Text = "   "

	if err := p.session.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.session.Wait()

	if p.resolver.CallCount() != 0 {
		t.Error("empty transcript reached the intent resolver")
	}
	if p.speaker.CallCount() != 0 {
		t.Error("silent turn produced feedback speech")
	}
	if got := p.machine.Current(); got != StateIdle {
		t.Errorf("state = %s, want idle", got)
	}
	if p.device.Held() {
		t.Error("device handle leaked")
	}
}

func TestSession_TranscriptionFailure(t *testing.T) {
	p := newTestPipeline(t, 20*time.Millisecond)
	p.transcriber.Err = stt.ErrTranscription

	if err := p.session.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.session.Wait()

	if got := p.speaker.LastText(); got != "Sorry, something went wrong." {
		t.Errorf("spoken feedback = %q", got)
	}
	if p.resolver.CallCount() != 0 {
		t.Error("failed transcription reached the intent resolver")
	}
	if got := p.machine.Current(); got != StateIdle {
		t.Errorf("state = %s, want idle", got)
	}
	if p.device.Held() {
		t.Error("device handle leaked after error path")
	}
}

func TestSession_IntentFailure(t *testing.T) {
	p := newTestPipeline(t, 20*time.Millisecond)
	p.transcriber.Text = "play something"
	p.resolver.Err = errors.New("upstream 502")

	if err := p.session.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.session.Wait()

	if got := p.speaker.LastText(); got != "Sorry, something went wrong." {
		t.Errorf("spoken feedback = %q", got)
	}
	if got := p.machine.Current(); got != StateIdle {
		t.Errorf("state = %s, want idle", got)
	}
}

func TestSession_ToggleStopsEarly(t *testing.T) {
	p := newTestPipeline(t, 10*time.Second)
	p.transcriber.Text = "pause"
	p.resolver.Command = command.Command{Action: command.ActionPause}

	start := time.Now()
	if err := p.session.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return p.machine.Current() == StateListening })
	if err := p.session.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	p.session.Wait()

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("toggle did not cut the capture window short (took %v)", elapsed)
	}
	if got := p.speaker.LastText(); got != "Paused" {
		t.Errorf("spoken feedback = %q", got)
	}
	if p.device.Held() {
		t.Error("device handle leaked after manual stop")
	}
}

func TestSession_ToggleWhileIdleStarts(t *testing.T) {
	p := newTestPipeline(t, 20*time.Millisecond)
	p.transcriber.Text = ""

	if err := p.session.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if p.device.AcquireCalls != 1 {
		t.Errorf("AcquireCalls = %d, want 1", p.device.AcquireCalls)
	}
	p.session.Wait()
}

func TestSession_SequentialRunsReacquireDevice(t *testing.T) {
	p := newTestPipeline(t, 10*time.Millisecond)
	p.transcriber.Text = ""

	for i := 0; i < 3; i++ {
		if err := p.session.Start(context.Background()); err != nil {
			t.Fatalf("Start #%d: %v", i+1, err)
		}
		p.session.Wait()
	}
	if p.device.AcquireCalls != 3 {
		t.Errorf("AcquireCalls = %d, want 3", p.device.AcquireCalls)
	}
}
