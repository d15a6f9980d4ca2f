package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/rcm-webdev/insight-lens/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/models.yaml
var defaultFixture []byte

// Provider supplies the models a Catalog exposes.
type Provider interface {
	ListModels() []models.AIModel
}

// StaticProvider serves a fixed slice of models.
type StaticProvider []models.AIModel

// ListModels returns a copy of the models in declaration order.
func (p StaticProvider) ListModels() []models.AIModel {
	out := make([]models.AIModel, len(p))
	copy(out, p)
	return out
}

type fixtureFile struct {
	Models []models.AIModel `yaml:"models"`
}

// DefaultProvider returns the embedded sample catalog.
func DefaultProvider() StaticProvider {
	p, err := parseFixture(defaultFixture)
	if err != nil {
		// The embedded fixture is part of the binary.
		panic(fmt.Sprintf("catalog: embedded fixture: %v", err))
	}
	return p
}

// LoadYAMLFile parses a catalog YAML file.
func LoadYAMLFile(path string) (StaticProvider, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer file.Close()

	return LoadYAML(file)
}

// LoadYAML parses a catalog from an io.Reader.
func LoadYAML(r io.Reader) (StaticProvider, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return parseFixture(data)
}

func parseFixture(data []byte) (StaticProvider, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Models))
	for i, m := range f.Models {
		if m.ID == "" {
			return nil, fmt.Errorf("catalog entry %d: missing id", i)
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, m.ID)
		}
		seen[m.ID] = struct{}{}
		if !m.Type.Valid() {
			return nil, fmt.Errorf("catalog entry %q: unknown type %q", m.ID, m.Type)
		}
		if !m.Status.Valid() {
			return nil, fmt.Errorf("catalog entry %q: unknown status %q", m.ID, m.Status)
		}
	}

	return StaticProvider(f.Models), nil
}
