package engine

import (
	"context"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/trace"
)

// ArticleResult is the outcome of evaluating one article: every output it
// produced (or, with a requested output set, just that one), every input
// it resolved along the way, and the trace tree recording how.
type ArticleResult struct {
	ArticleNumber string
	LawID         string
	LawUUID       string
	Output        map[string]any
	Input         map[string]any
	Trace         *trace.Node
}

// ServiceProvider is the cross-regulation call-back the context uses to
// evaluate another regulation's output. It is satisfied by
// pkg/service.Service; the interface lives here (accept
// interfaces, return structs) so pkg/engine never imports pkg/service,
// breaking what would otherwise be a import cycle between the two.
type ServiceProvider interface {
	EvaluateURI(ctx context.Context, uri string, parameters map[string]any, calculationDate string, requestedOutput string) (*ArticleResult, error)
}
