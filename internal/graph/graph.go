// Package graph records the interlocks found while resolving one batch: which accepted
// epkg claimed the file that kept another epkg out of the install list.
package graph

import (
	"fmt"
	"path/filepath"
)

// Edge says Blocked could not be installed because Blocker, accepted earlier in the batch,
// already claims File.
type Edge struct {
	Blocked string
	Blocker string
	File    string
}

func (e Edge) String() string {
	return fmt.Sprintf("%s blocked by %s on %s", filepath.Base(e.Blocked), filepath.Base(e.Blocker), e.File)
}

// Interlocks is the set of edges of one batch, in discovery order.
type Interlocks struct {
	Edges []Edge
}

func (g *Interlocks) Add(e Edge) {
	g.Edges = append(g.Edges, e)
}

func (g *Interlocks) Len() int {
	return len(g.Edges)
}

// Lines renders every edge for reports.
func (g *Interlocks) Lines() []string {
	out := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		out = append(out, e.String())
	}
	return out
}
