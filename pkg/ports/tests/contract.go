package tests

import (
	"context"
	"testing"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MachineLoaderContractTest is a reusable test suite that verifies if an adapter
// complies with ports.MachineLoader. setupData holds what the loader was seeded with.
func MachineLoaderContractTest(t *testing.T, loader ports.MachineLoader, setupData map[string]domain.Description) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMachine_Success", func(t *testing.T) {
		for id, expected := range setupData {
			desc, err := loader.GetMachine(ctx, id)
			require.NoError(t, err, "getting machine %s", id)
			assert.Equal(t, expected, desc)
		}
	})

	t.Run("GetMachine_NotFound", func(t *testing.T) {
		_, err := loader.GetMachine(ctx, "non-existent-machine")
		assert.ErrorIs(t, err, domain.ErrMachineNotFound)
	})

	t.Run("ListMachines", func(t *testing.T) {
		ids, err := loader.ListMachines(ctx)
		require.NoError(t, err)

		assert.Len(t, ids, len(setupData))
		for id := range setupData {
			assert.Contains(t, ids, id)
		}
	})
}
