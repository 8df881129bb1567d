// Package intent defines the Resolver interface for intent-resolution
// backends: gateways that map a free-form transcript to a structured player
// [command.Command].
//
// Resolution is constrained to a closed action vocabulary. Implementations
// must never invent actions: a response outside the vocabulary is either
// coerced to "unknown" (when the JSON itself is well-formed) or reported as
// [ErrIntent] (when the response cannot be parsed at all).
package intent

import (
	"context"
	"errors"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/command"
)

// ErrIntent marks an upstream classification failure: service or network
// error, or a malformed (non-parseable) response.
var ErrIntent = errors.New("intent: resolution failed")

// Resolver is the abstraction over any intent-classification backend.
//
// Implementations must be safe for concurrent use.
type Resolver interface {
	// Resolve maps one transcript to a structured Command. The returned
	// Command's action is always within the closed vocabulary. Failures are
	// wrapped in [ErrIntent].
	Resolve(ctx context.Context, transcript string) (command.Command, error)
}
