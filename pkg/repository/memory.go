package repository

import (
	"context"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/registry"
)

// MemoryRepository satisfies registry.Repository from regulations already
// held in memory (parsed YAML documents, typically), rather than a
// filesystem tree. The golden-fixture harness uses this to load a test
// case's inline law YAML without touching disk.
type MemoryRepository struct {
	regulations []*registry.Regulation
}

// NewMemoryRepository wraps already-parsed regulations for registry.Load.
func NewMemoryRepository(regs ...*registry.Regulation) *MemoryRepository {
	return &MemoryRepository{regulations: regs}
}

// ParseYAML decodes one regulation document from YAML text, assigning a
// deterministic UUID if the document omits one, matching loadFile's
// filesystem-loading behaviour.
func ParseYAML(source string) (*registry.Regulation, error) {
	var reg registry.Regulation
	if err := yaml.Unmarshal([]byte(source), &reg); err != nil {
		return nil, err
	}
	if reg.UUID == "" {
		reg.UUID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(reg.LawID)).String()
	}
	return &reg, nil
}

// Load implements registry.Repository, returning the wrapped regulations
// unchanged.
func (m *MemoryRepository) Load(ctx context.Context) ([]*registry.Regulation, error) {
	return m.regulations, nil
}
