package ports

import (
	"context"

	"github.com/aretw0/turing/pkg/domain"
)

// MachineLoader defines how machine descriptions are retrieved by ID.
// Loaders are read-only: definitions are never persisted by the simulator.
type MachineLoader interface {
	// GetMachine returns the raw description of a machine.
	// Returns domain.ErrMachineNotFound if the ID is unknown.
	GetMachine(ctx context.Context, id string) (domain.Description, error)

	// ListMachines returns the IDs of all available machines.
	// This is used by listing and introspection tools (e.g. 'turing list').
	ListMachines(ctx context.Context) ([]string, error)
}
