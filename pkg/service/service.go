// Package service provides the top-level entry point callers use to
// evaluate a regulation's output: it resolves (law_id, output_name) or a
// regelrecht:// URI to the article producing it, caches one engine per
// article, and exposes discovery over every loaded regulation.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/datasource"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/engine"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/registry"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/uri"
)

type engineCacheKey struct {
	lawID  string
	output string
}

// Service is the process-wide entry point for evaluating regulation
// outputs. It owns a cache of per-article engines (pure functions of
// their regulation and article, so re-creation on a miss is always safe)
// and an optional data-source registry shared by every evaluation.
type Service struct {
	registry *registry.Registry

	mu          sync.Mutex
	engineCache map[engineCacheKey]*engine.Engine

	dataRegistry *datasource.Registry
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithDataSources attaches a data-source registry consulted for article
// inputs that declare no explicit cross-regulation source.
func WithDataSources(reg *datasource.Registry) Option {
	return func(s *Service) {
		s.dataRegistry = reg
	}
}

// New creates a Service bound to reg, applying any options.
func New(reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		registry:    reg,
		engineCache: make(map[engineCacheKey]*engine.Engine),
	}
	for _, opt := range opts {
		opt(s)
	}
	log.Info().Int("laws", reg.LawCount()).Int("outputs", reg.OutputCount()).Msg("law execution service ready")
	return s
}

// EvaluateURI evaluates a regelrecht:// (or file-path form) reference.
// requestedOutput overrides the URI's fragment when non-empty; if both are
// empty the result is not filtered and carries every output of the
// article. Satisfies engine.ServiceProvider, so a
// Context's cross-regulation calls route back through this method.
func (s *Service) EvaluateURI(ctx context.Context, target string, parameters map[string]any, calculationDate string, requestedOutput string) (*engine.ArticleResult, error) {
	log.Debug().Str("uri", target).Msg("evaluating uri")

	law, article, field, err := s.registry.ResolveURI(target)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrLawNotFound):
			return nil, engine.WrapError(engine.KindLawNotFound, err, "could not resolve uri %q", target)
		case errors.Is(err, registry.ErrOutputNotFound):
			return nil, engine.WrapError(engine.KindOutputNotFound, err, "could not resolve uri %q", target)
		default:
			return nil, fmt.Errorf("could not resolve uri %q: %w", target, err)
		}
	}

	outputNames := article.OutputNames()
	if len(outputNames) == 0 {
		return nil, engine.NewError(engine.KindOutputNotFound, "article %s of %s has no outputs", article.Number, law.LawID)
	}

	eng := s.engineFor(law.LawID, outputNames[0], article, law)

	output := requestedOutput
	if output == "" {
		output = field
	}

	if calculationDate == "" {
		calculationDate = time.Now().UTC().Format("2006-01-02")
	}

	return eng.Evaluate(ctx, parameters, s, calculationDate, output, s.dataRegistry)
}

// EvaluateLawOutput evaluates (lawID, outputName) directly, building the
// canonical URI via uri.Build so that callers never hand-assemble it.
func (s *Service) EvaluateLawOutput(ctx context.Context, lawID, outputName string, parameters map[string]any, calculationDate string) (*engine.ArticleResult, error) {
	return s.EvaluateURI(ctx, uri.Build(lawID, outputName, ""), parameters, calculationDate, "")
}

func (s *Service) engineFor(lawID, firstOutput string, article *registry.Article, law *registry.Regulation) *engine.Engine {
	key := engineCacheKey{lawID: lawID, output: firstOutput}

	s.mu.Lock()
	defer s.mu.Unlock()
	if eng, ok := s.engineCache[key]; ok {
		return eng
	}
	log.Debug().Str("law_id", lawID).Str("output", firstOutput).Msg("creating engine")
	eng := engine.New(article, law, s.registry)
	s.engineCache[key] = eng
	return eng
}

// ListLaws returns every loaded law id.
func (s *Service) ListLaws() []string {
	return s.registry.ListLaws()
}

// ListOutputs returns every (law_id, output_name) pair.
func (s *Service) ListOutputs() [][2]string {
	return s.registry.ListOutputs()
}

// LawInfo describes a loaded regulation's discoverable metadata.
type LawInfo struct {
	ID              string
	UUID            string
	RegulatoryLayer string
	PublicationDate string
	BwbID           string
	URL             string
	Outputs         []string
	ArticleCount    int
}

// LawInfo returns discovery metadata for lawID, or false if not loaded.
func (s *Service) LawInfo(lawID string) (LawInfo, bool) {
	law, ok := s.registry.GetRegulation(lawID)
	if !ok {
		return LawInfo{}, false
	}

	var outputs []string
	for _, article := range law.Articles {
		outputs = append(outputs, article.OutputNames()...)
	}

	return LawInfo{
		ID:              law.LawID,
		UUID:            law.UUID,
		RegulatoryLayer: string(law.RegulatoryLayer),
		PublicationDate: law.PublicationDate,
		BwbID:           law.BwbID,
		URL:             law.URL,
		Outputs:         outputs,
		ArticleCount:    len(law.Articles),
	}, true
}

// RenderLegalBasisGraph renders a Graphviz DOT document of every currently
// loaded regulation's legal-basis relationships.
func (s *Service) RenderLegalBasisGraph() string {
	return s.registry.RenderLegalBasisGraph()
}
