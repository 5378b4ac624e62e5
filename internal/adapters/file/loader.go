// Package file reads machine descriptions from single YAML or JSON files.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/turing/internal/compiler"
	"github.com/aretw0/turing/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a description file. Transitions may be given
// as a list or as a single block with one line per transition.
type Document struct {
	domain.Description `yaml:",inline"`
	TransitionBlock    string `yaml:"transition_block" json:"transition_block"`
	Input              string `yaml:"input" json:"input"`
}

// Read decodes a description file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMachineNotFound, path)
		}
		return nil, fmt.Errorf("failed to read machine file: %w", err)
	}

	var doc Document
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if doc.TransitionBlock != "" {
		doc.Transitions = append(doc.Transitions, compiler.SplitLines(doc.TransitionBlock)...)
		doc.TransitionBlock = ""
	}
	return &doc, nil
}

// IsFile reports whether ref names an existing regular file.
func IsFile(ref string) bool {
	info, err := os.Stat(ref)
	return err == nil && info.Mode().IsRegular()
}
