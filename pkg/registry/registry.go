package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/uri"
)

// ErrLawNotFound and ErrOutputNotFound are sentinel causes wrapped into
// ResolveURI's returned error, letting callers (pkg/service) classify the
// failure without string-matching the message.
var (
	ErrLawNotFound    = errors.New("law not found")
	ErrOutputNotFound = errors.New("output not found")
)

// Repository produces the sequence of parsed regulation documents a
// Registry indexes. The core does not prescribe the on-disk format; a
// concrete implementation (pkg/repository) owns that concern.
type Repository interface {
	Load(ctx context.Context) ([]*Regulation, error)
}

type outputKey struct {
	lawID  string
	output string
}

type basisKey struct {
	lawID   string
	article string
}

// Registry is the in-memory index of every loaded regulation: by
// identifier, by produced output, and by declared legal basis. It is safe
// for concurrent read access once Load has returned; reloading acquires an
// exclusive lock.
type Registry struct {
	mu sync.RWMutex

	byID        map[string]*Regulation
	byOutput    map[outputKey]*Article
	byLegalBasis map[basisKey][]*Regulation

	loadOrder []string
}

// New creates an empty registry. Call Load to populate it.
func New() *Registry {
	return &Registry{
		byID:         make(map[string]*Regulation),
		byOutput:     make(map[outputKey]*Article),
		byLegalBasis: make(map[basisKey][]*Regulation),
	}
}

// Load enumerates repo's regulations and (re)builds the four indexes.
// Duplicate law_id or output entries overwrite with a warning — the
// later-loaded document wins, per the registry's documented last-write
// semantics. Existing indexes are replaced atomically under the write
// lock, so concurrent readers never observe a partially rebuilt registry.
func (r *Registry) Load(ctx context.Context, repo Repository) error {
	regs, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading regulations: %w", err)
	}

	byID := make(map[string]*Regulation, len(regs))
	byOutput := make(map[outputKey]*Article)
	byLegalBasis := make(map[basisKey][]*Regulation)
	loadOrder := make([]string, 0, len(regs))

	for _, reg := range regs {
		if _, exists := byID[reg.LawID]; exists {
			log.Warn().Str("law_id", reg.LawID).Msg("duplicate law id, overwriting previous")
		}
		byID[reg.LawID] = reg
		loadOrder = append(loadOrder, reg.LawID)

		for _, article := range reg.Articles {
			for _, name := range article.OutputNames() {
				key := outputKey{lawID: reg.LawID, output: name}
				if _, exists := byOutput[key]; exists {
					log.Warn().Str("law_id", reg.LawID).Str("output", name).Msg("duplicate output, overwriting")
				}
				byOutput[key] = article
			}
		}

		for _, lb := range reg.LegalBasis {
			key := basisKey{lawID: lb.LawID, article: lb.Article}
			byLegalBasis[key] = append(byLegalBasis[key], reg)
		}
	}

	r.mu.Lock()
	r.byID = byID
	r.byOutput = byOutput
	r.byLegalBasis = byLegalBasis
	r.loadOrder = loadOrder
	r.mu.Unlock()

	log.Info().Int("laws", len(byID)).Int("outputs", len(byOutput)).Msg("registry loaded")
	return nil
}

// GetRegulation returns the regulation registered under id, if any.
func (r *Registry) GetRegulation(id string) (*Regulation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byID[id]
	return reg, ok
}

// GetArticleByOutput returns the article that produces (lawID, output).
func (r *Registry) GetArticleByOutput(lawID, output string) (*Article, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byOutput[outputKey{lawID: lawID, output: output}]
	return a, ok
}

// FindImplementingRegulations returns every ministerial regulation that
// declares (lawID, article) as its legal basis.
func (r *Registry) FindImplementingRegulations(lawID, article string) []*Regulation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates := r.byLegalBasis[basisKey{lawID: lawID, article: article}]
	out := make([]*Regulation, 0, len(candidates))
	for _, reg := range candidates {
		if reg.RegulatoryLayer == LayerMinisterieleRegeling {
			out = append(out, reg)
		}
	}
	return out
}

// ResolvedCriterion is a select_on entry after its value expression
// has been evaluated against the caller's context.
type ResolvedCriterion struct {
	Name  string
	Value any
}

// FindDelegatedRegulation returns the first candidate regulation under
// (lawID, article) whose attributes match every resolved criterion, in
// load order.
func (r *Registry) FindDelegatedRegulation(lawID, article string, criteria []ResolvedCriterion) (*Regulation, bool) {
	r.mu.RLock()
	candidates := append([]*Regulation(nil), r.byLegalBasis[basisKey{lawID: lawID, article: article}]...)
	r.mu.RUnlock()

	for _, reg := range candidates {
		if matchesAll(reg, criteria) {
			return reg, true
		}
	}
	return nil, false
}

func matchesAll(reg *Regulation, criteria []ResolvedCriterion) bool {
	for _, c := range criteria {
		got, ok := reg.Attribute(c.Name)
		if !ok {
			return false
		}
		if !attrEqual(got, c.Value) {
			return false
		}
	}
	return true
}

func attrEqual(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// ResolveURI resolves either wire form to the regulation, article, and
// optional field it names.
func (r *Registry) ResolveURI(s string) (*Regulation, *Article, string, error) {
	ref, err := uri.Parse(s)
	if err != nil {
		return nil, nil, "", fmt.Errorf("invalid reference %q: %w", s, err)
	}
	reg, ok := r.GetRegulation(ref.LawID)
	if !ok {
		return nil, nil, "", fmt.Errorf("%w: %s", ErrLawNotFound, ref.LawID)
	}
	article, ok := r.GetArticleByOutput(ref.LawID, ref.Output)
	if !ok {
		return nil, nil, "", fmt.Errorf("%w: %s/%s", ErrOutputNotFound, ref.LawID, ref.Output)
	}
	return reg, article, ref.Field, nil
}

// ListLaws returns every loaded law id in load order.
func (r *Registry) ListLaws() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.loadOrder...)
}

// ListOutputs returns every (law_id, output_name) pair, sorted for
// deterministic discovery output.
func (r *Registry) ListOutputs() [][2]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([][2]string, 0, len(r.byOutput))
	for k := range r.byOutput {
		out = append(out, [2]string{k.lawID, k.output})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// LawCount returns the number of loaded regulations.
func (r *Registry) LawCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// OutputCount returns the number of indexed outputs.
func (r *Registry) OutputCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byOutput)
}
