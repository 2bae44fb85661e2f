package engine

import "context"

type depthKey struct{}

// MaxRecursionDepth bounds cross-regulation recursion (a regulation whose
// input sources from another regulation whose input sources back from the
// first manifests as unbounded recursion; neither the registry nor the URI
// cache detects this cycle statically). A fixed constant is an acceptable
// hardening bound.
const MaxRecursionDepth = 64

func depthFrom(ctx context.Context) int {
	if d, ok := ctx.Value(depthKey{}).(int); ok {
		return d
	}
	return 0
}

func withIncrementedDepth(ctx context.Context) (context.Context, int) {
	d := depthFrom(ctx) + 1
	return context.WithValue(ctx, depthKey{}, d), d
}
