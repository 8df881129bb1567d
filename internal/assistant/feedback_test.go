package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ttsmock "github.com/ShridharB-cloud/soundwave-dreams/pkg/provider/tts/mock"
)

func TestFeedback_SpeaksAndRevertsToIdle(t *testing.T) {
	machine := NewMachine()
	speaker := &ttsmock.Speaker{Chunks: [][]byte{[]byte("pcm1"), []byte("pcm2")}}
	f := NewFeedback(machine, speaker, testMetrics(t))

	var (
		mu   sync.Mutex
		seen []State
	)
	machine.Subscribe(func(_, to State) {
		mu.Lock()
		seen = append(seen, to)
		mu.Unlock()
	})

	f.Say(context.Background(), "Paused")

	if got := speaker.LastText(); got != "Paused" {
		t.Errorf("synthesised text = %q", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != StateSpeaking || seen[1] != StateIdle {
		t.Errorf("transitions = %v, want [speaking idle]", seen)
	}
}

func TestFeedback_SynthesisFailureIsSwallowed(t *testing.T) {
	machine := NewMachine()
	speaker := &ttsmock.Speaker{Err: errors.New("api down")}
	f := NewFeedback(machine, speaker, testMetrics(t))

	f.Say(context.Background(), "Paused")

	if got := machine.Current(); got != StateIdle {
		t.Errorf("state = %s, want idle after synthesis failure", got)
	}
}

func TestFeedback_EmptyTextSpeaksNothing(t *testing.T) {
	machine := NewMachine()
	speaker := &ttsmock.Speaker{}
	f := NewFeedback(machine, speaker, testMetrics(t))

	f.Say(context.Background(), "")

	if speaker.CallCount() != 0 {
		t.Error("empty text must not reach the speaker")
	}
	if got := machine.Current(); got != StateIdle {
		t.Errorf("state = %s, want idle", got)
	}
}

func TestFeedback_BlockedSpeakingStillCollapsesToIdle(t *testing.T) {
	machine := NewMachine()
	if err := machine.To(StateListening); err != nil {
		t.Fatalf("setup: %v", err)
	}
	speaker := &ttsmock.Speaker{}
	f := NewFeedback(machine, speaker, testMetrics(t))

	// Speaking is not reachable from listening; the machine must not stay
	// wedged there.
	f.Say(context.Background(), "Paused")

	if speaker.CallCount() != 0 {
		t.Error("speech synthesised despite blocked transition")
	}
	if got := machine.Current(); got != StateIdle {
		t.Errorf("state = %s, want idle after blocked transition", got)
	}
}

func TestFeedback_InterruptCancelsInFlightSpeech(t *testing.T) {
	machine := NewMachine()
	speaker := &ttsmock.Speaker{Block: make(chan struct{})}
	f := NewFeedback(machine, speaker, testMetrics(t))

	done := make(chan struct{})
	go func() {
		f.Say(context.Background(), "a very long announcement")
		close(done)
	}()

	waitFor(t, func() bool { return machine.Current() == StateSpeaking })
	f.Interrupt()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("interrupted speech did not finish")
	}
	if got := machine.Current(); got != StateIdle {
		t.Errorf("state = %s, want idle after interrupt", got)
	}
}
