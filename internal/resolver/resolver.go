package resolver

import "context"

// Resolver computes a Plan (install order and rejections) for a batch of epkgs.
type Resolver interface {
	Resolve(ctx context.Context, in Input) (Plan, error)
}
