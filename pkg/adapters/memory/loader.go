package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/turing/pkg/domain"
)

// Loader implements ports.MachineLoader using an in-memory map.
type Loader struct {
	machines map[string]domain.Description
}

// NewLoader creates a Loader over the given descriptions, keyed by machine ID.
func NewLoader(machines map[string]domain.Description) *Loader {
	data := make(map[string]domain.Description, len(machines))
	for id, desc := range machines {
		desc.Transitions = append([]string(nil), desc.Transitions...)
		data[id] = desc
	}
	return &Loader{machines: data}
}

// GetMachine retrieves a description by ID.
func (l *Loader) GetMachine(ctx context.Context, id string) (domain.Description, error) {
	desc, ok := l.machines[id]
	if !ok {
		return domain.Description{}, fmt.Errorf("%w: %s", domain.ErrMachineNotFound, id)
	}
	desc.Transitions = append([]string(nil), desc.Transitions...)
	return desc, nil
}

// ListMachines returns all available machine IDs.
func (l *Loader) ListMachines(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.machines))
	for k := range l.machines {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
