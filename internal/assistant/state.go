// Package assistant coordinates the Cloudly voice pipeline: wake phrase
// detection, a bounded capture session, the transcription and intent
// gateways, command dispatch, and spoken feedback. The externally observable
// AssistantState machine acts as the concurrency gate for the whole pipeline:
// exactly one capture session and one network continuation may be in flight,
// and every component funnels its state changes through [Machine].
package assistant

import (
	"errors"
	"fmt"
	"sync"
)

// State is the externally observable assistant state.
type State string

const (
	// StateIdle means the assistant is waiting for a wake phrase or a manual
	// trigger.
	StateIdle State = "idle"
	// StateListening means a capture session is buffering microphone audio.
	StateListening State = "listening"
	// StateProcessing means a captured utterance is in the network
	// continuation (transcription or intent resolution).
	StateProcessing State = "processing"
	// StateSpeaking means feedback audio is being played.
	StateSpeaking State = "speaking"
	// StateActive means a command has been resolved and is being applied to
	// the player.
	StateActive State = "active"
)

// ErrInvalidTransition is returned when a state change is not permitted from
// the current state.
var ErrInvalidTransition = errors.New("assistant: invalid state transition")

// transitions is the closed set of legal state changes. Everything else is a
// programming error surfaced as ErrInvalidTransition.
var transitions = map[State][]State{
	StateIdle:       {StateListening, StateSpeaking},
	StateListening:  {StateProcessing, StateIdle},
	StateProcessing: {StateActive, StateSpeaking, StateIdle},
	StateActive:     {StateSpeaking, StateListening, StateIdle},
	StateSpeaking:   {StateIdle},
}

// Machine is the guarded AssistantState holder. All transitions go through
// [Machine.To]; there is no way to set the state directly. Machine is safe
// for concurrent use.
type Machine struct {
	mu    sync.Mutex
	state State
	subs  []func(from, to State)
}

// NewMachine creates a Machine in StateIdle.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Is reports whether the current state is one of states.
func (m *Machine) Is(states ...State) bool {
	cur := m.Current()
	for _, s := range states {
		if cur == s {
			return true
		}
	}
	return false
}

// To moves the machine to the target state. Returns ErrInvalidTransition
// (wrapped with the attempted edge) if the change is not in the legal set.
// Subscribers are notified synchronously, outside the state lock, in
// registration order.
func (m *Machine) To(to State) error {
	m.mu.Lock()
	from := m.state
	if !legal(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.state = to
	subs := make([]func(State, State), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(from, to)
	}
	return nil
}

// Subscribe registers fn to observe every transition. fn must not call back
// into To synchronously from the notification.
func (m *Machine) Subscribe(fn func(from, to State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

func legal(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
