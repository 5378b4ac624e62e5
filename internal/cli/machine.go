package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/turing/internal/adapters/file"
	"github.com/aretw0/turing/pkg/adapters/loam"
	"github.com/aretw0/turing/pkg/domain"
)

// Machine is a description resolved from the command line.
type Machine struct {
	ID          string
	Description domain.Description
	// SampleInput is the "input" stored next to the description, if any.
	SampleInput string
}

// ResolveMachine loads ref as a YAML/JSON file when such a file exists, and as
// a machine ID in the Loam directory dir otherwise.
func ResolveMachine(ctx context.Context, ref, dir string) (*Machine, error) {
	if file.IsFile(ref) {
		doc, err := file.Read(ref)
		if err != nil {
			return nil, err
		}
		return &Machine{
			ID:          strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref)),
			Description: doc.Description,
			SampleInput: doc.Input,
		}, nil
	}

	loader, err := loam.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("error opening machine directory: %w", err)
	}
	desc, err := loader.GetMachine(ctx, ref)
	if err != nil {
		return nil, err
	}
	input, err := loader.SampleInput(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &Machine{ID: ref, Description: desc, SampleInput: input}, nil
}

// ListMachines returns the IDs of the machine documents in dir.
func ListMachines(ctx context.Context, dir string) ([]string, error) {
	loader, err := loam.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("error opening machine directory: %w", err)
	}
	return loader.ListMachines(ctx)
}
