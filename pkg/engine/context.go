package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/datasource"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/registry"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/trace"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/types"
)

// cacheEntry is one memoised cross-regulation call result.
type cacheEntry struct {
	value    any
	subTrace *trace.Node
}

// Context is the per-invocation resolution environment for one article
// evaluation: it owns the article's definitions, the caller's parameters,
// the service reference used for cross-regulation calls, the calculation
// date, an optional data-source registry, and the execution trace. A
// Context is owned exclusively by the engine that created it and is
// discarded with it; each cross-regulation call creates its own.
type Context struct {
	goCtx context.Context

	article    *registry.Article
	regulation *registry.Regulation
	reg        *registry.Registry

	definitions map[string]any
	parameters  map[string]any
	locals      map[string]any

	calculationDate string
	referenceDate   types.Date

	service      ServiceProvider
	dataRegistry *datasource.Registry

	outputs        map[string]any
	resolvedInputs map[string]any
	uriCache       map[string]cacheEntry

	tracer *trace.Tracer
}

func newContext(
	goCtx context.Context,
	article *registry.Article,
	regulation *registry.Regulation,
	reg *registry.Registry,
	parameters map[string]any,
	service ServiceProvider,
	calculationDate string,
	dataRegistry *datasource.Registry,
	tracer *trace.Tracer,
) (*Context, error) {
	refDate, err := types.ParseDate(calculationDate)
	if err != nil {
		return nil, wrapError(KindMissingReference, err, "invalid calculation date %q", calculationDate)
	}

	definitions := map[string]any{}
	if article.MachineReadable != nil {
		for k, v := range article.MachineReadable.Definitions {
			definitions[k] = v
		}
	}

	params := make(map[string]any, len(parameters))
	for k, v := range parameters {
		params[k] = v
	}

	return &Context{
		goCtx:           goCtx,
		article:         article,
		regulation:      regulation,
		reg:             reg,
		definitions:     definitions,
		parameters:      params,
		locals:          map[string]any{},
		calculationDate: calculationDate,
		referenceDate:   refDate,
		service:         service,
		dataRegistry:    dataRegistry,
		outputs:         map[string]any{},
		resolvedInputs:  map[string]any{},
		uriCache:        map[string]cacheEntry{},
		tracer:          tracer,
	}, nil
}

// resolve implements the bare-name resolution priority chain: referencedate,
// locals, outputs, memoised inputs, definitions, parameters, sourced inputs,
// then the external data-source registry. The categorical execution-
// organisation-data fallback tier is omitted; nothing in this registry
// exercises it. It returns the resolved value and whether resolution
// succeeded at all.
func (c *Context) resolve(name string) (any, bool, error) {
	// Tier 1: built-in referencedate.
	if name == "referencedate" {
		return c.referenceDate, true, nil
	}

	// Tier 2: locals.
	if v, ok := c.locals[name]; ok {
		return v, true, nil
	}

	// Tier 3: outputs already produced by earlier actions.
	if v, ok := c.outputs[name]; ok {
		return v, true, nil
	}

	// Tier 4: already-resolved cross-regulation inputs.
	if v, ok := c.resolvedInputs[name]; ok {
		return v, true, nil
	}

	// Tier 5: article definitions.
	if v, ok := c.definitions[name]; ok {
		return v, true, nil
	}

	// Tier 6: caller parameters, with case-insensitive fallback.
	if v, ok := c.parameters[name]; ok {
		return v, true, nil
	}
	for k, v := range c.parameters {
		if strings.EqualFold(k, name) {
			return v, true, nil
		}
	}

	// Tier 7: input spec with a source always dispatches, overriding data
	// sources — outputs must come from their designated regulation.
	if spec, ok := c.findInputSpec(name); ok && inputHasSource(spec) {
		value, err := c.resolveInput(spec)
		if err != nil {
			return nil, false, err
		}
		c.resolvedInputs[name] = value
		return value, true, nil
	}

	// Tier 8: external data-source registry, for source-less inputs.
	if c.dataRegistry != nil {
		if _, ok := c.findInputSpec(name); ok {
			if match, found := c.dataRegistry.Resolve(name, c.parameters); found {
				c.resolvedInputs[name] = match.Value
				return match.Value, true, nil
			}
		}
	}

	return nil, false, nil
}

func (c *Context) findInputSpec(name string) (*registry.InputSpec, bool) {
	if c.article.MachineReadable == nil || c.article.MachineReadable.Execution == nil {
		return nil, false
	}
	for i := range c.article.MachineReadable.Execution.Input {
		if c.article.MachineReadable.Execution.Input[i].Name == name {
			return &c.article.MachineReadable.Execution.Input[i], true
		}
	}
	return nil, false
}

func inputHasSource(spec *registry.InputSpec) bool {
	return spec.Source != nil
}

// resolvePath resolves a possibly-dotted reference: "$foo.bar" resolves
// "foo" via resolve, then performs iterated property access for "bar".
func (c *Context) resolvePath(path string) (any, error) {
	head := path
	rest := ""
	if idx := strings.Index(path, "."); idx >= 0 {
		head = path[:idx]
		rest = path[idx+1:]
	}

	value, ok, err := c.resolve(head)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Warn().Str("name", head).Msg("unresolved variable reference")
		return nil, nil
	}

	if rest == "" {
		return value, nil
	}

	for _, field := range strings.Split(rest, ".") {
		value, ok = accessField(value, field)
		if !ok {
			log.Warn().Str("field", field).Msg("unknown property access, yielding null")
			return nil, nil
		}
	}
	return value, nil
}

func accessField(value any, field string) (any, bool) {
	switch v := value.(type) {
	case types.Date:
		return v.Field(field)
	case map[string]any:
		out, ok := v[field]
		return out, ok
	default:
		return nil, false
	}
}

// memoKey canonicalises (uri, params, calculation_date) into a stable cache
// key: sorted "k:v" pairs joined by commas, embedded in the target URI's
// parameter list.
func memoKey(targetURI string, params map[string]any, calculationDate string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", k, params[k]))
	}
	return fmt.Sprintf("%s(%s,%s)", targetURI, strings.Join(parts, ","), calculationDate)
}
