package ports

import (
	"context"

	"github.com/aretw0/turing/pkg/domain"
)

// Machine is the stepping surface of a simulator as seen by runners and transports.
// *turing.Simulator implements it.
type Machine interface {
	// Reset seeds the tape with input and returns to the initial state.
	Reset(ctx context.Context, input string)

	// Tick answers one step request under the halting policy.
	Tick(ctx context.Context) domain.Verdict

	// Snapshot returns a value copy of the current configuration.
	Snapshot() domain.Configuration

	// Reason explains the last halt.
	Reason() domain.HaltReason
}
