// Package datasource provides priority-ordered leaf-field lookup for
// article inputs that declare no explicit cross-regulation source: host
// applications register named data sources, and the registry resolves a
// field against whichever source claims it with the highest priority.
package datasource

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Match is the result of a successful data source query.
type Match struct {
	Value      any
	SourceName string
	SourceType string
}

// Source is one named, priority-ranked field provider.
type Source interface {
	Name() string
	Priority() int
	HasField(field string) bool
	Get(field string, criteria map[string]any) (any, bool)
}

// DictSource is a simple map-backed Source, keyed by a single identifier
// taken from a criterion value (typically a national person number).
// Field names are matched case-insensitively.
type DictSource struct {
	name       string
	priority   int
	mu         sync.RWMutex
	records    map[string]map[string]any
	fieldIndex map[string]bool
}

// NewDictSource creates an empty DictSource with the given name and
// priority (higher wins on ties).
func NewDictSource(name string, priority int) *DictSource {
	return &DictSource{
		name:       name,
		priority:   priority,
		records:    make(map[string]map[string]any),
		fieldIndex: make(map[string]bool),
	}
}

// Store indexes a record under key, lower-casing its field names.
func (d *DictSource) Store(key string, record map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	normalized := make(map[string]any, len(record))
	for k, v := range record {
		lk := strings.ToLower(k)
		normalized[lk] = v
		d.fieldIndex[lk] = true
	}
	d.records[key] = normalized
}

func (d *DictSource) Name() string  { return d.name }
func (d *DictSource) Priority() int { return d.priority }

func (d *DictSource) HasField(field string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fieldIndex[strings.ToLower(field)]
}

// Get looks the field up using a criterion value as the primary key
// (sources are expected to key on one identifier, typically a national
// person number, extracted from the criteria map). When criteria holds
// more than one entry, which value is used as the key is not defined.
func (d *DictSource) Get(field string, criteria map[string]any) (any, bool) {
	if len(criteria) == 0 {
		return nil, false
	}
	var key string
	for _, v := range criteria {
		key = toString(v)
		break
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	record, ok := d.records[key]
	if !ok {
		return nil, false
	}
	v, ok := record[strings.ToLower(field)]
	return v, ok
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Registry holds every registered data source and resolves fields against
// them in descending priority order, first match wins.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry creates an empty data source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds or replaces a named source.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Name()] = s
	log.Debug().Str("source", s.Name()).Int("priority", s.Priority()).Msg("registered data source")
}

// Unregister removes a source by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sources, name)
}

// SourcesSorted returns every registered source, highest priority first.
func (r *Registry) SourcesSorted() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, 0, len(r.sources))
	for _, s := range r.sources {
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() > out[j].Priority()
	})
	return out
}

// Resolve searches sources in priority order and returns the first match.
func (r *Registry) Resolve(field string, criteria map[string]any) (Match, bool) {
	fieldLower := strings.ToLower(field)
	for _, s := range r.SourcesSorted() {
		if !s.HasField(fieldLower) {
			continue
		}
		value, ok := s.Get(fieldLower, criteria)
		if !ok || value == nil {
			continue
		}
		log.Debug().Str("field", field).Str("source", s.Name()).Msg("resolved from data source")
		return Match{Value: value, SourceName: s.Name(), SourceType: sourceTypeName(s)}, true
	}
	return Match{}, false
}

// ListSources returns every registered source name.
func (r *Registry) ListSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	return names
}

// GetSource returns a specific source by name.
func (r *Registry) GetSource(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

func sourceTypeName(s Source) string {
	switch s.(type) {
	case *DictSource:
		return "DictSource"
	default:
		return "Source"
	}
}
