// Package repository loads regulation documents from a directory tree of
// YAML files and satisfies pkg/registry.Repository, the core's one
// consumed contract for regulation sourcing. It also offers an optional
// fsnotify-based watcher that triggers full registry reloads.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/registry"
)

// defaultCategories are the top-level directories a regulation root is
// conventionally organised into, one per regulatory layer. Any of them
// that is absent is simply skipped; a root using a flat layout (every
// *.yaml directly under Root) is also supported by a bare directory walk.
var defaultCategories = []string{"wet", "amvb", "ministeriele_regeling", "beleidsregel", "gemeentelijke_verordening"}

// Repository loads every *.yaml regulation document under a configured
// root directory.
type Repository struct {
	root       string
	categories []string
}

// Option configures a Repository at construction time.
type Option func(*Repository)

// WithCategories overrides the set of category subdirectories scanned
// under root, replacing the default wet/amvb/ministeriele_regeling/
// beleidsregel/gemeentelijke_verordening list.
func WithCategories(categories ...string) Option {
	return func(r *Repository) {
		r.categories = categories
	}
}

// New creates a Repository rooted at dir.
func New(dir string, opts ...Option) *Repository {
	r := &Repository{root: dir, categories: defaultCategories}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load implements registry.Repository: it walks every category
// subdirectory (falling back to a flat walk of root itself if none of the
// configured categories exist), parses each *.yaml file, and returns every
// regulation it could parse. A file that fails to parse is logged and
// skipped; the repository remains usable for the rest.
func (r *Repository) Load(ctx context.Context) ([]*registry.Regulation, error) {
	info, err := os.Stat(r.root)
	if err != nil {
		return nil, fmt.Errorf("regulation root %s: %w", r.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("regulation root %s is not a directory", r.root)
	}

	var paths []string
	foundCategory := false
	for _, category := range r.categories {
		dir := filepath.Join(r.root, category)
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			foundCategory = true
			found, err := collectYAMLFiles(dir)
			if err != nil {
				return nil, err
			}
			paths = append(paths, found...)
		}
	}
	if !foundCategory {
		found, err := collectYAMLFiles(r.root)
		if err != nil {
			return nil, err
		}
		paths = found
	}
	sort.Strings(paths)

	regs := make([]*registry.Regulation, 0, len(paths))
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		reg, err := loadFile(path)
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("failed to load regulation file, skipping")
			continue
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

func collectYAMLFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return out, nil
}

func loadFile(path string) (*registry.Regulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var reg registry.Regulation
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if reg.LawID == "" {
		return nil, fmt.Errorf("%s: missing $id", path)
	}
	if reg.UUID == "" {
		reg.UUID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(reg.LawID)).String()
	}
	reg.SourcePath = path
	return &reg, nil
}
