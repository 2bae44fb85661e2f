package engine

import (
	"context"
	"fmt"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/datasource"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/expr"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/registry"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/trace"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/types"
)

// Engine executes a single article's machine_readable.execution block: its
// ordered action list, against caller-supplied parameters and a calculation
// date, producing every declared output (or just the one requested).
type Engine struct {
	article    *registry.Article
	regulation *registry.Regulation
	registry   *registry.Registry
}

// New binds an Engine to one article of one regulation. registry is used to
// resolve cross-regulation and legal-basis references the article's inputs
// and resolve actions name.
func New(article *registry.Article, regulation *registry.Regulation, reg *registry.Registry) *Engine {
	return &Engine{article: article, regulation: regulation, registry: reg}
}

// Evaluate runs every action in order — later actions may depend on earlier
// ones' outputs, so all of them execute regardless of requestedOutput; only
// the returned Output map is filtered.
func (e *Engine) Evaluate(
	goCtx context.Context,
	parameters map[string]any,
	service ServiceProvider,
	calculationDate string,
	requestedOutput string,
	dataRegistry *datasource.Registry,
) (*ArticleResult, error) {
	if e.article.MachineReadable == nil || e.article.MachineReadable.Execution == nil {
		return nil, newError(KindOutputNotFound, "article %s of %s has no machine-readable execution block", e.article.Number, e.regulation.LawID)
	}

	goCtx, depth := withIncrementedDepth(goCtx)
	if depth > MaxRecursionDepth {
		return nil, newError(KindRecursionLimit, "recursion limit exceeded evaluating %s article %s", e.regulation.LawID, e.article.Number)
	}

	tracer := trace.NewTracer(fmt.Sprintf("Evaluate %s article %s", e.regulation.LawID, e.article.Number))
	root := tracer.Root()
	root.Details["law_id"] = e.regulation.LawID
	root.Details["article"] = e.article.Number
	root.Details["parameters"] = parameters

	c, err := newContext(goCtx, e.article, e.regulation, e.registry, parameters, service, calculationDate, dataRegistry, tracer)
	if err != nil {
		return nil, err
	}

	for _, action := range e.article.MachineReadable.Execution.Actions {
		if err := goCtx.Err(); err != nil {
			return nil, fmt.Errorf("evaluating %s article %s: %w", e.regulation.LawID, e.article.Number, err)
		}
		if err := c.executeAction(action); err != nil {
			return nil, err
		}
	}

	outputs := c.outputs
	if requestedOutput != "" {
		filtered := make(map[string]any, 1)
		if v, ok := c.outputs[requestedOutput]; ok {
			filtered[requestedOutput] = v
		}
		outputs = filtered
	}

	return &ArticleResult{
		ArticleNumber: e.article.Number,
		LawID:         e.regulation.LawID,
		LawUUID:       e.regulation.UUID,
		Output:        outputs,
		Input:         c.resolvedInputs,
		Trace:         root,
	}, nil
}

// executeAction runs one action, recording it as a child trace node, applies
// the declared output TypeSpec (if any), and records the result into
// c.outputs.
func (c *Context) executeAction(action expr.Action) error {
	node := c.tracer.Push(trace.NodeAction, fmt.Sprintf("Calculate %s", action.Output))
	defer c.tracer.Pop()

	value, err := c.evaluateAction(action)
	if err != nil {
		return err
	}

	if spec := c.outputTypeSpec(action.Output); spec != nil {
		value = spec.Enforce(value)
	}

	c.outputs[action.Output] = value
	node.SetResult(value)
	return nil
}

func (c *Context) outputTypeSpec(name string) *types.TypeSpec {
	if c.article.MachineReadable == nil || c.article.MachineReadable.Execution == nil {
		return nil
	}
	for i := range c.article.MachineReadable.Execution.Output {
		if c.article.MachineReadable.Execution.Output[i].Name == name {
			return c.article.MachineReadable.Execution.Output[i].TypeSpec
		}
	}
	return nil
}

func (c *Context) evaluateAction(action expr.Action) (any, error) {
	if action.Resolve != nil {
		return c.evalResolve(action.Resolve)
	}
	if action.Expr != nil {
		return c.evalExpr(action.Expr)
	}
	return nil, newError(KindTypeValue, "action %q declares neither value, operation, nor resolve", action.Output)
}
