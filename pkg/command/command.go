// Package command defines the structured player command produced by intent
// resolution and consumed by the dispatcher.
//
// The action vocabulary is closed: any action string outside the enumerated
// set is coerced to [ActionUnknown] during decoding so that an upstream model
// inventing a new verb can never reach the player. A Command is single-use —
// it is created from one transcript and dispatched exactly once.
package command

import (
	"encoding/json"
	"fmt"
)

// Action is one of the player verbs the intent gateway may emit.
type Action string

const (
	ActionPlay    Action = "play"
	ActionPause   Action = "pause"
	ActionNext    Action = "next"
	ActionPrev    Action = "prev"
	ActionVolume  Action = "volume"
	ActionShuffle Action = "shuffle"
	ActionUnknown Action = "unknown"
)

// IsValid reports whether a is part of the closed action vocabulary.
func (a Action) IsValid() bool {
	switch a {
	case ActionPlay, ActionPause, ActionNext, ActionPrev,
		ActionVolume, ActionShuffle, ActionUnknown:
		return true
	}
	return false
}

// Command is the structured result of intent resolution for one utterance.
type Command struct {
	// Action selects the player operation. Always within the closed
	// vocabulary after decoding; see [Command.UnmarshalJSON].
	Action Action `json:"action"`

	// Song is the free-text search query for play commands that name a
	// specific song or artist. Empty for a bare "resume playback".
	Song string `json:"song,omitempty"`

	// Value carries the requested volume percentage for volume commands.
	// The dispatcher clamps it to [0, 100] before applying.
	Value float64 `json:"value,omitempty"`

	// Message is the assistant's reply for unknown commands
	// (e.g., "I didn't catch that.").
	Message string `json:"message,omitempty"`
}

// commandJSON mirrors Command for decoding without recursing into
// Command.UnmarshalJSON.
type commandJSON struct {
	Action  string  `json:"action"`
	Song    string  `json:"song"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

// UnmarshalJSON decodes a Command and coerces any action outside the closed
// vocabulary to [ActionUnknown]. Malformed JSON is an error; an unexpected
// action string is not.
func (c *Command) UnmarshalJSON(data []byte) error {
	var raw commandJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("command: decode: %w", err)
	}
	*c = Command{
		Action:  Action(raw.Action),
		Song:    raw.Song,
		Value:   raw.Value,
		Message: raw.Message,
	}
	c.Normalize()
	return nil
}

// Normalize coerces an out-of-vocabulary action to [ActionUnknown].
// It is idempotent and safe to call on any Command.
func (c *Command) Normalize() {
	if !c.Action.IsValid() {
		c.Action = ActionUnknown
	}
}

// ClampVolume clamps a requested volume percentage to the [0, 100] range.
func ClampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
