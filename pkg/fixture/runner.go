package fixture

import (
	"context"
	"errors"
	"fmt"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/datasource"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/engine"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/registry"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/repository"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/service"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/types"
)

// Outcome is a Case's actual, canonicalised result, ready for comparison
// against its Expected field.
type Outcome struct {
	Success        bool
	ArticleNumber  string
	LawID          string
	Outputs        map[string]any
	ResolvedInputs map[string]any
	ErrorType      string
	ErrorMessage   string
}

// mockServiceProvider refuses every cross-regulation call: a single-law
// fixture's actions cannot legitimately reference another law.
type mockServiceProvider struct{}

func (mockServiceProvider) EvaluateURI(_ context.Context, uri string, _ map[string]any, _ string, _ string) (*engine.ArticleResult, error) {
	return nil, fmt.Errorf("cannot resolve uri %s in mock provider", uri)
}

// Run executes one Case and returns its canonicalised Outcome. A non-nil
// error indicates the fixture itself is malformed (bad YAML, missing law);
// engine evaluation failures are captured in the returned Outcome, not
// surfaced as a Go error, so a Case declaring ExpectError can compare
// against it directly.
func Run(ctx context.Context, c Case) (*Outcome, error) {
	calculationDate := c.CalculationDate
	if calculationDate == "" {
		calculationDate = "2025-01-01"
	}

	if c.MultiLaw() {
		return runMultiLaw(ctx, c, calculationDate)
	}
	return runSingleLaw(ctx, c, calculationDate)
}

func runSingleLaw(ctx context.Context, c Case, calculationDate string) (*Outcome, error) {
	law, err := repository.ParseYAML(c.LawYAML)
	if err != nil {
		return nil, fmt.Errorf("parsing law yaml: %w", err)
	}

	var article *registry.Article
	for _, a := range law.Articles {
		for _, name := range a.OutputNames() {
			if name == c.OutputName {
				article = a
				break
			}
		}
		if article != nil {
			break
		}
	}
	if article == nil {
		return &Outcome{
			Success:      false,
			ErrorType:    "OutputNotFound",
			ErrorMessage: fmt.Sprintf("no article found with output %q", c.OutputName),
		}, nil
	}

	reg := registry.New()
	if err := reg.Load(ctx, repository.NewMemoryRepository(law)); err != nil {
		return nil, fmt.Errorf("loading fixture registry: %w", err)
	}

	eng := engine.New(article, law, reg)
	result, err := eng.Evaluate(ctx, c.Parameters, mockServiceProvider{}, calculationDate, "", nil)
	return toOutcome(result, err), nil
}

func runMultiLaw(ctx context.Context, c Case, calculationDate string) (*Outcome, error) {
	regs := make([]*registry.Regulation, 0, len(c.Laws))
	for _, spec := range c.Laws {
		law, err := repository.ParseYAML(spec.YAML)
		if err != nil {
			return nil, fmt.Errorf("parsing law yaml for %s: %w", spec.LawID, err)
		}
		regs = append(regs, law)
	}

	reg := registry.New()
	if err := reg.Load(ctx, repository.NewMemoryRepository(regs...)); err != nil {
		return nil, fmt.Errorf("loading fixture registry: %w", err)
	}

	svc := service.New(reg, service.WithDataSources(datasource.NewRegistry()))
	result, err := svc.EvaluateLawOutput(ctx, c.LawID, c.OutputName, c.Parameters, calculationDate)
	return toOutcome(result, err), nil
}

func toOutcome(result *engine.ArticleResult, err error) *Outcome {
	if err != nil {
		return &Outcome{
			Success:      false,
			ErrorType:    errorType(err),
			ErrorMessage: err.Error(),
		}
	}
	return &Outcome{
		Success:        true,
		ArticleNumber:  result.ArticleNumber,
		LawID:          result.LawID,
		Outputs:        canonicalizeMap(result.Output),
		ResolvedInputs: canonicalizeMap(result.Input),
	}
}

func canonicalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = types.Canonicalize(v)
	}
	return out
}

// errorType maps an engine error's Kind to the golden-fixture error_type
// vocabulary.
func errorType(err error) string {
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		return "ValueError"
	}
	switch engErr.Kind {
	case engine.KindDivisionByZero:
		return "DivisionByZero"
	case engine.KindLawNotFound:
		return "LawNotFound"
	case engine.KindOutputNotFound:
		return "OutputNotFound"
	case engine.KindDelegation:
		return "NoLegalBasis"
	case engine.KindAmbiguousResolve:
		return "AmbiguousResolve"
	default:
		return "ValueError"
	}
}
