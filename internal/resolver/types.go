package resolver

import (
	"fmt"

	"github.com/dlminvestments/ansible-power-aix/internal/epkg"
	"github.com/dlminvestments/ansible-power-aix/internal/graph"
	"github.com/dlminvestments/ansible-power-aix/internal/inventory"
)

// Input is the view of the system and the batch that the resolver operates on.
//
// Filesets and Efixes are required; a run without both baseline tables is not attempted.
type Input struct {
	// Paths are the candidate epkg files, unique within the batch.
	Paths    []string
	Filesets inventory.Filesets
	Efixes   *inventory.Efixes
}

// Plan is the outcome of a resolution pass.
//
// Every input path appears exactly once, either in Accepted or in Rejected.
type Plan struct {
	// Accepted is the install order: most recently packaged first. Installers must not
	// reorder it.
	Accepted []*epkg.Candidate
	// Rejected is sorted by reason.
	Rejected    []Rejection
	Interlocks  graph.Interlocks
	Diagnostics Diagnostics
}

// Rejection is a candidate removed from the batch and why.
type Rejection struct {
	Path   string
	Reason string
	Cause  epkg.Cause
}

// AcceptedPaths returns the accepted epkg paths in install order.
func (p Plan) AcceptedPaths() []string {
	out := make([]string, 0, len(p.Accepted))
	for _, c := range p.Accepted {
		out = append(out, c.Path)
	}
	return out
}

// RejectedReasons returns the rejection reasons in report order.
func (p Plan) RejectedReasons() []string {
	out := make([]string, 0, len(p.Rejected))
	for _, r := range p.Rejected {
		out = append(out, r.Reason)
	}
	return out
}

// Diagnostics captures the operator messages of one run.
//
// It is threaded through resolution explicitly and returned in the Plan.
type Diagnostics struct {
	Messages []string
}

func (d *Diagnostics) Add(msgs ...string) {
	d.Messages = append(d.Messages, msgs...)
}

func (d *Diagnostics) Addf(format string, args ...any) {
	d.Messages = append(d.Messages, fmt.Sprintf(format, args...))
}
