// Package mock provides a test double for the intent.Resolver interface.
package mock

import (
	"context"
	"sync"

	"github.com/ShridharB-cloud/soundwave-dreams/pkg/command"
)

// Resolver is a mock implementation of intent.Resolver.
// Set Command/Err before use; inspect Calls after.
type Resolver struct {
	mu sync.Mutex

	// Command is returned by Resolve.
	Command command.Command

	// Err, if non-nil, is returned by Resolve.
	Err error

	// Calls records the transcripts passed to Resolve, in order.
	Calls []string
}

// Resolve implements intent.Resolver.
func (r *Resolver) Resolve(_ context.Context, transcript string) (command.Command, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, transcript)
	if r.Err != nil {
		return command.Command{}, r.Err
	}
	return r.Command, nil
}

// CallCount returns the number of Resolve invocations so far.
func (r *Resolver) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}
