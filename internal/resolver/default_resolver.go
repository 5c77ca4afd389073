package resolver

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/dlminvestments/ansible-power-aix/internal/epkg"
	"github.com/dlminvestments/ansible-power-aix/internal/graph"
	"github.com/dlminvestments/ansible-power-aix/internal/metrics"
)

const defaultParallelism = 4

// DefaultResolver describes every candidate, drops those failing their own checks, then
// keeps the most recently packaged epkgs whose files do not overlap.
type DefaultResolver struct {
	Describer epkg.Describer
	// Parallelism bounds concurrent describe queries. Values below 1 use the default.
	Parallelism int
}

func NewDefault(d epkg.Describer) *DefaultResolver {
	return &DefaultResolver{Describer: d, Parallelism: defaultParallelism}
}

type extraction struct {
	candidate *epkg.Candidate
	messages  []string
}

func (r *DefaultResolver) Resolve(ctx context.Context, in Input) (Plan, error) {
	logger := log.FromContext(ctx).WithName("resolver")

	if in.Filesets == nil || in.Efixes == nil {
		return Plan{}, ErrMissingInventory
	}

	paths := uniquePaths(in.Paths)
	x := epkg.NewExtractor(r.Describer, in.Filesets, in.Efixes)

	results := make([]extraction, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism())
	for i, path := range paths {
		g.Go(func() error {
			c, msgs := x.Extract(gctx, path)
			results[i] = extraction{candidate: c, messages: msgs}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Plan{}, fmt.Errorf("resolve interrupted: %w", err)
	}

	var diag Diagnostics
	candidates := make([]*epkg.Candidate, 0, len(results))
	for _, res := range results {
		diag.Add(res.messages...)
		candidates = append(candidates, res.candidate)
	}

	plan := ResolveBatch(ctx, candidates, &diag)
	logger.Info("resolution done", "candidates", len(paths), "accepted", len(plan.Accepted), "rejected", len(plan.Rejected), "interlocks", plan.Interlocks.Len())
	return plan, nil
}

func (r *DefaultResolver) parallelism() int {
	if r.Parallelism < 1 {
		return defaultParallelism
	}
	return r.Parallelism
}

// ResolveBatch partitions described candidates into an install order and a reject list.
//
// Candidates already carrying a rejection go straight to the reject list. The rest are
// walked newest packaging time first (unknown times last, input order on ties); a candidate
// is accepted only if none of its files is claimed by an epkg accepted before it.
func ResolveBatch(ctx context.Context, candidates []*epkg.Candidate, diag *Diagnostics) Plan {
	logger := log.FromContext(ctx).WithName("resolver")
	if diag == nil {
		diag = &Diagnostics{}
	}

	pending := make([]*epkg.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Rejected() {
			pending = append(pending, c)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return newer(pending[i], pending[j])
	})

	plan := Plan{}
	claimed := sets.New[string]()
	owner := map[string]*epkg.Candidate{}
	for _, c := range pending {
		file, blocker := firstClaimed(c, claimed, owner)
		if blocker == nil {
			for _, f := range c.Files {
				claimed.Insert(f)
				owner[f] = c
			}
			plan.Accepted = append(plan.Accepted, c)
			logger.Info("keep", "epkg", c.Base(), "files", c.Files)
			continue
		}

		c.Reject(epkg.CauseInterlock, fmt.Sprintf("%s: locked by previous efix to install", c.Base()))
		diag.Addf("a previous efix to install will lock a file of %s preventing its installation, "+
			"install it manually or run the task again.", c.Base())
		plan.Interlocks.Add(graph.Edge{Blocked: c.Path, Blocker: blocker.Path, File: file})
		logger.Info("reject", "reason", c.Rejection, "blocker", blocker.Base(), "file", file)
	}

	byCause := map[string]int{}
	for _, c := range candidates {
		if !c.Rejected() {
			continue
		}
		plan.Rejected = append(plan.Rejected, Rejection{Path: c.Path, Reason: c.Rejection, Cause: c.Cause})
		byCause[string(c.Cause)]++
	}
	sort.SliceStable(plan.Rejected, func(i, j int) bool {
		if plan.Rejected[i].Reason != plan.Rejected[j].Reason {
			return plan.Rejected[i].Reason < plan.Rejected[j].Reason
		}
		return plan.Rejected[i].Path < plan.Rejected[j].Path
	})

	metrics.ObserveResolution(len(pending), len(plan.Accepted), byCause)
	plan.Diagnostics = *diag
	return plan
}

// newer orders by packaging time, descending; unknown times rank as the oldest.
func newer(a, b *epkg.Candidate) bool {
	switch {
	case a.KnownTime() && !b.KnownTime():
		return true
	case !a.KnownTime():
		return false
	}
	return a.PackagingTime > b.PackagingTime
}

func firstClaimed(c *epkg.Candidate, claimed sets.Set[string], owner map[string]*epkg.Candidate) (string, *epkg.Candidate) {
	for _, f := range c.Files {
		if claimed.Has(f) {
			return f, owner[f]
		}
	}
	return "", nil
}

func uniquePaths(paths []string) []string {
	seen := sets.New[string]()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen.Has(p) {
			continue
		}
		seen.Insert(p)
		out = append(out, p)
	}
	return out
}
