package engine

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/expr"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/registry"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/trace"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/uri"
)

// resolveInput dispatches one input spec's source to the regulation+output
// form, the delegation mechanism, a legacy article/url/ref reference, or an
// internal same-document reference.
func (c *Context) resolveInput(spec *registry.InputSpec) (any, error) {
	src := spec.Source
	if src.Delegation != nil {
		return c.resolveDelegation(spec)
	}

	targetURI, err := c.buildSourceURI(spec)
	if err != nil {
		return nil, err
	}

	resolvedParams, err := c.resolveParameters(src.Parameters)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(targetURI, "#") {
		return c.resolveInternalReference(targetURI, resolvedParams)
	}
	return c.resolveExternalURI(targetURI, resolvedParams)
}

func (c *Context) buildSourceURI(spec *registry.InputSpec) (string, error) {
	src := spec.Source

	if src.Output != "" {
		if src.Regulation == "" {
			return "", newError(KindMissingReference, "cannot resolve input %q: external data source without regulation is not supported", spec.Name)
		}
		return uri.Build(src.Regulation, src.Output, src.Output), nil
	}

	targetURI := src.URL
	if targetURI == "" {
		targetURI = src.Ref
	}
	if targetURI == "" {
		targetURI = src.ArticleRef
	}
	if targetURI == "" {
		return "", newError(KindMissingReference, "cannot resolve input %q: no valid source specification found", spec.Name)
	}

	if src.ArticleRef != "" &&
		!strings.HasPrefix(targetURI, "#") &&
		!strings.HasPrefix(targetURI, uri.Scheme) &&
		!strings.HasPrefix(targetURI, "regulation/") {
		if idx := strings.LastIndex(src.ArticleRef, "."); idx >= 0 {
			lawID := src.ArticleRef[:idx]
			output := src.ArticleRef[idx+1:]
			return uri.Build(lawID, output, spec.Name), nil
		}
		return "#" + src.ArticleRef, nil
	}

	return targetURI, nil
}

// resolveParameters evaluates a source's declared parameter expressions
// against the calling context ($BSN -> actual value), leaving literals
// unchanged.
func (c *Context) resolveParameters(params map[string]expr.Expr) (map[string]any, error) {
	resolved := make(map[string]any, len(params))
	for k, v := range params {
		value, err := c.evalExpr(&v)
		if err != nil {
			return nil, err
		}
		resolved[k] = value
	}
	return resolved, nil
}

func (c *Context) resolveInternalReference(targetURI string, params map[string]any) (any, error) {
	outputName := strings.TrimPrefix(targetURI, "#")

	key := memoKey(targetURI, params, c.calculationDate)
	if entry, ok := c.uriCache[key]; ok {
		if entry.subTrace != nil {
			c.tracer.Current().AddChild(entry.subTrace)
		}
		return entry.value, nil
	}

	article, ok := c.reg.GetArticleByOutput(c.regulation.LawID, outputName)
	if !ok {
		log.Error().Str("output", outputName).Str("law_id", c.regulation.LawID).Msg("internal reference not found")
		return nil, nil
	}

	node := c.tracer.Push(trace.NodeURICall, fmt.Sprintf("Internal #%s", outputName))
	defer c.tracer.Pop()

	sub := New(article, c.regulation, c.reg)
	result, err := sub.Evaluate(c.goCtx, params, c.service, c.calculationDate, outputName, c.dataRegistry)
	if err != nil {
		return nil, wrapError(KindCrossRegulation, err, "internal reference #%s failed", outputName)
	}
	if result.Trace != nil {
		node.AddChild(result.Trace)
	}

	value := result.Output[outputName]
	node.SetResult(value)
	c.uriCache[key] = cacheEntry{value: value, subTrace: result.Trace}
	return value, nil
}

func (c *Context) resolveExternalURI(targetURI string, params map[string]any) (any, error) {
	key := memoKey(targetURI, params, c.calculationDate)
	if entry, ok := c.uriCache[key]; ok {
		if entry.subTrace != nil {
			c.tracer.Current().AddChild(entry.subTrace)
		}
		return entry.value, nil
	}
	if c.service == nil {
		return nil, newError(KindCrossRegulation, "no service provider configured to resolve %s", targetURI)
	}

	node := c.tracer.Push(trace.NodeURICall, fmt.Sprintf("Call %s", targetURI))
	defer c.tracer.Pop()

	result, err := c.service.EvaluateURI(c.goCtx, targetURI, params, c.calculationDate, "")
	if err != nil {
		return nil, wrapError(KindCrossRegulation, err, "resolving %s", targetURI)
	}
	if result.Trace != nil {
		node.AddChild(result.Trace)
	}

	ref, err := uri.Parse(targetURI)
	if err != nil {
		return nil, wrapError(KindCrossRegulation, err, "parsing resolved uri %s", targetURI)
	}

	var value any
	switch {
	case ref.Field != "":
		value = result.Output[ref.Field]
	case len(result.Output) == 1:
		for _, v := range result.Output {
			value = v
		}
	default:
		value = result.Output
	}

	node.SetResult(value)
	c.uriCache[key] = cacheEntry{value: value, subTrace: result.Trace}
	return value, nil
}

// resolveDelegation finds the municipal regulation implementing a national
// delegation, falling back to the delegating article's own defaults clause
// when none matches.
func (c *Context) resolveDelegation(spec *registry.InputSpec) (any, error) {
	src := spec.Source
	delegation := src.Delegation
	lawID := delegation.LawID
	article := delegation.Article
	outputName := src.Output

	criteria, err := c.resolveSelectOn(delegation.SelectOn)
	if err != nil {
		return nil, err
	}
	if len(criteria) == 0 {
		log.Error().Str("law_id", lawID).Str("article", article).Msg("no selection criteria for delegation")
		return nil, nil
	}

	resolvedParams, err := c.resolveParameters(src.Parameters)
	if err != nil {
		return nil, err
	}

	if verordening, found := c.reg.FindDelegatedRegulation(lawID, article, criteria); found {
		if artObj, ok := c.reg.GetArticleByOutput(verordening.LawID, outputName); ok {
			return c.evaluateDelegate(verordening, artObj, resolvedParams, outputName)
		}
		log.Warn().Str("output", outputName).Str("verordening", verordening.LawID).Msg("output not found in delegated regulation")
	}

	return c.resolveDelegationDefaults(lawID, article, criteria, resolvedParams, outputName)
}

func (c *Context) evaluateDelegate(verordening *registry.Regulation, article *registry.Article, params map[string]any, outputName string) (any, error) {
	node := c.tracer.Push(trace.NodeURICall, fmt.Sprintf("Delegation %s", verordening.LawID))
	defer c.tracer.Pop()

	sub := New(article, verordening, c.reg)
	result, err := sub.Evaluate(c.goCtx, params, c.service, c.calculationDate, "", c.dataRegistry)
	if err != nil {
		return nil, wrapError(KindDelegation, err, "evaluating delegated regulation %s", verordening.LawID)
	}
	if result.Trace != nil {
		node.AddChild(result.Trace)
	}

	var value any
	if v, ok := result.Output[outputName]; ok {
		value = v
	} else {
		value = result.Output
	}
	node.SetResult(value)
	return value, nil
}

func (c *Context) resolveSelectOn(criteria []registry.SelectCriterion) ([]registry.ResolvedCriterion, error) {
	resolved := make([]registry.ResolvedCriterion, 0, len(criteria))
	for i := range criteria {
		value, err := c.evalExpr(&criteria[i].Value)
		if err != nil {
			return nil, err
		}
		if value == nil {
			log.Warn().Str("name", criteria[i].Name).Msg("could not resolve variable in delegation criterion")
			continue
		}
		resolved = append(resolved, registry.ResolvedCriterion{Name: criteria[i].Name, Value: value})
	}
	return resolved, nil
}

// resolveDelegationDefaults is consulted when no verordening matched (or the
// one that did lacks the requested output): an optional delegation falls
// back to the delegating article's defaults clause, a mandatory one (no
// defaults declared) fails with a "no legal basis" error.
func (c *Context) resolveDelegationDefaults(lawID, article string, criteria []registry.ResolvedCriterion, params map[string]any, outputName string) (any, error) {
	delegatingLaw, ok := c.reg.GetRegulation(lawID)
	if !ok {
		log.Warn().Str("law_id", lawID).Msg("delegating law not found")
		return nil, nil
	}

	for _, art := range delegatingLaw.Articles {
		if art.Number != article {
			continue
		}
		if art.LegalBasisFor == nil {
			break
		}
		if art.LegalBasisFor.Defaults == nil {
			return nil, newError(KindDelegation, "No regulation found for mandatory delegation %s article %s with criteria %v. No legal basis for decision.", lawID, article, criteria)
		}
		return c.executeDefaults(art.LegalBasisFor.Defaults, params, outputName)
	}

	log.Warn().Str("law_id", lawID).Str("article", article).Msg("no legal_basis_for found for delegation")
	return nil, nil
}

// executeDefaults runs a defaults clause's action list as a minimal
// synthetic article so the engine can evaluate it without a real law
// document backing it.
func (c *Context) executeDefaults(defaults *registry.DefaultsClause, params map[string]any, outputName string) (any, error) {
	synthetic := &registry.Article{
		Number: "defaults",
		Text:   "Default values",
		MachineReadable: &registry.MachineReadable{
			Definitions: defaults.Definitions,
			Execution: &registry.Execution{
				Actions: defaults.Actions,
				Output:  defaults.Output,
			},
		},
	}
	defaultLaw := &registry.Regulation{LawID: "defaults"}

	sub := New(synthetic, defaultLaw, c.reg)
	result, err := sub.Evaluate(c.goCtx, params, c.service, c.calculationDate, "", c.dataRegistry)
	if err != nil {
		return nil, wrapError(KindDelegation, err, "executing delegation defaults")
	}

	if outputName != "" {
		if v, ok := result.Output[outputName]; ok {
			return v, nil
		}
	}
	return result.Output, nil
}

// evalResolve implements legal-basis dispatch: find every ministerial
// regulation that declares the current article as its legal basis, probe
// each candidate's match output (if any), and require exactly one surviving
// match before extracting its requested output.
func (c *Context) evalResolve(spec *expr.ResolveSpec) (any, error) {
	candidates := c.reg.FindImplementingRegulations(c.regulation.LawID, c.article.Number)
	if len(candidates) == 0 {
		return nil, newError(KindAmbiguousResolve, "no matching regeling found for %s article %s with criteria %s", c.regulation.LawID, c.article.Number, matchCriteriaDesc(spec.Match))
	}

	var expectedMatch any
	if spec.Match != nil {
		v, err := c.evalExpr(&spec.Match.Value)
		if err != nil {
			return nil, err
		}
		expectedMatch = v
	}

	type resolveMatch struct {
		lawID string
		value any
		sub   *trace.Node
	}
	var matches []resolveMatch

	for _, candidate := range candidates {
		article, ok := c.reg.GetArticleByOutput(candidate.LawID, spec.Output)
		if !ok {
			continue
		}
		sub := New(article, candidate, c.reg)

		if spec.Match != nil {
			probe, err := sub.Evaluate(c.goCtx, map[string]any{}, c.service, c.calculationDate, spec.Match.Output, c.dataRegistry)
			if err != nil {
				if isCritical(err) {
					return nil, err
				}
				continue
			}
			got, ok := probe.Output[spec.Match.Output]
			if !ok || !valuesEqual(got, expectedMatch) {
				continue
			}
		}

		result, err := sub.Evaluate(c.goCtx, map[string]any{}, c.service, c.calculationDate, spec.Output, c.dataRegistry)
		if err != nil {
			if isCritical(err) {
				return nil, err
			}
			continue
		}
		value, ok := result.Output[spec.Output]
		if !ok {
			continue
		}
		matches = append(matches, resolveMatch{lawID: candidate.LawID, value: value, sub: result.Trace})
	}

	if len(matches) == 0 {
		return nil, newError(KindAmbiguousResolve, "no matching regeling found for %s article %s with criteria %s", c.regulation.LawID, c.article.Number, matchCriteriaDesc(spec.Match))
	}
	if len(matches) > 1 {
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.lawID
		}
		return nil, newError(KindAmbiguousResolve, "multiple regelingen match for %s article %s with criteria %s. Found: %v. Please add more specific match criteria to ensure deterministic resolution.", c.regulation.LawID, c.article.Number, matchCriteriaDesc(spec.Match), ids)
	}

	node := c.tracer.Push(trace.NodeURICall, fmt.Sprintf("Resolve %s", matches[0].lawID))
	if matches[0].sub != nil {
		node.AddChild(matches[0].sub)
	}
	node.SetResult(matches[0].value)
	c.tracer.Pop()

	return matches[0].value, nil
}

func matchCriteriaDesc(m *expr.ResolveMatch) string {
	if m == nil {
		return "{}"
	}
	return fmt.Sprintf("{output: %s}", m.Output)
}
