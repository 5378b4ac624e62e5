package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/turing/internal/compiler"
	"github.com/aretw0/turing/pkg/domain"
)

// Loader adapts the Loam library to the ports.MachineLoader interface.
// Each document in the repository describes one machine.
type Loader struct {
	Repo *loam.TypedRepository[MachineMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[MachineMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numeric types consistent across JSON and Markdown,
	// and read-only mode stops Loam from creating anything in the directory.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return New(loam.NewTypedRepository[MachineMetadata](repo)), nil
}

// GetMachine resolves a machine by its normalized ID (file name without extension,
// or the "id" key when present).
func (l *Loader) GetMachine(ctx context.Context, id string) (domain.Description, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return domain.Description{}, fmt.Errorf("loam list failed: %w", err)
	}

	docID := ""
	for _, doc := range docs {
		if normalizedID(doc.Data.ID, doc.ID) == id {
			docID = trimExtension(doc.ID)
			break
		}
	}
	if docID == "" {
		return domain.Description{}, fmt.Errorf("%w: %s", domain.ErrMachineNotFound, id)
	}

	doc, err := l.Repo.Get(ctx, docID)
	if err != nil {
		return domain.Description{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	return describe(doc.Data, doc.Content), nil
}

// SampleInput returns the "input" key of a machine document, if any.
func (l *Loader) SampleInput(ctx context.Context, id string) (string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return "", fmt.Errorf("loam list failed: %w", err)
	}
	for _, doc := range docs {
		if normalizedID(doc.Data.ID, doc.ID) == id {
			return doc.Data.Input, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrMachineNotFound, id)
}

func describe(meta MachineMetadata, body string) domain.Description {
	transitions := meta.Transitions
	if len(transitions) == 0 {
		transitions = compiler.SplitLines(body)
	}
	return domain.Description{
		States:      meta.States,
		Alphabet:    meta.Alphabet,
		Transitions: transitions,
		Initial:     meta.Initial,
		Accept:      meta.Accept,
		Reject:      meta.Reject,
	}
}

// ListMachines lists all machines in the repository.
func (l *Loader) ListMachines(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		id := normalizedID(doc.Data.ID, doc.ID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

// normalizedID prefers the metadata ID over the document path.
func normalizedID(metaID, docID string) string {
	if metaID != "" {
		return trimExtension(metaID)
	}
	return trimExtension(docID)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
