package inventory

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

var (
	reEfixID    = regexp.MustCompile(`^EFIX ID:\s+\S+$`)
	reEfixLabel = regexp.MustCompile(`^EFIX LABEL:\s+(\S+)$`)
	reLocation  = regexp.MustCompile(`^\s+LOCATION:\s+(\S+)$`)
	rePackage   = regexp.MustCompile(`^\s+PACKAGE:\s+(\S+)$`)
)

// Efix is an interim fix installed on the system.
//
// Files and Packages keep the order in which the listing first mentions them.
type Efix struct {
	Label    string
	Files    []string
	Packages []string

	fileSet sets.Set[string]
	pkgSet  sets.Set[string]
}

func newEfix(label string) *Efix {
	return &Efix{Label: label, fileSet: sets.New[string](), pkgSet: sets.New[string]()}
}

func (e *Efix) addFile(f string) {
	if e.fileSet.Has(f) {
		return
	}
	e.fileSet.Insert(f)
	e.Files = append(e.Files, f)
}

func (e *Efix) addPackage(p string) {
	if e.pkgSet.Has(p) {
		return
	}
	e.pkgSet.Insert(p)
	e.Packages = append(e.Packages, p)
}

// Efixes is the installed interim fix table, keyed by label, in listing order.
type Efixes struct {
	order   []string
	byLabel map[string]*Efix
}

func NewEfixes() *Efixes {
	return &Efixes{byLabel: map[string]*Efix{}}
}

// Add registers a fix built by hand; used by callers that already hold parsed data.
func (e *Efixes) Add(label string, files, packages []string) {
	fix := e.open(label)
	for _, f := range files {
		fix.addFile(f)
	}
	for _, p := range packages {
		fix.addPackage(p)
	}
}

// open starts a fresh record for label. A label seen twice keeps its first position.
func (e *Efixes) open(label string) *Efix {
	if _, ok := e.byLabel[label]; !ok {
		e.order = append(e.order, label)
	}
	fix := newEfix(label)
	e.byLabel[label] = fix
	return fix
}

func (e *Efixes) Get(label string) (*Efix, bool) {
	fix, ok := e.byLabel[label]
	return fix, ok
}

// Labels returns fix labels in listing order.
func (e *Efixes) Labels() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

func (e *Efixes) Len() int {
	return len(e.order)
}

// LockedFiles flattens every installed fix into a file -> owning label map.
// When two fixes claim the same file, the one listed first keeps it.
func (e *Efixes) LockedFiles() map[string]string {
	locked := map[string]string{}
	for _, label := range e.order {
		for _, f := range e.byLabel[label].Files {
			if _, ok := locked[f]; !ok {
				locked[f] = label
			}
		}
	}
	return locked
}

// ParseEfixes reads the section-oriented emgr -lv3 report.
//
// "EFIX ID:" starts a new block, "EFIX LABEL:" opens the record, then LOCATION and PACKAGE
// lines accumulate into the record's file and package sets. Blank lines and lines starting
// with '+' or '=' are ignored, as is anything before the block's label.
func ParseEfixes(ctx context.Context, r io.Reader) (*Efixes, error) {
	logger := log.FromContext(ctx).WithName("efixes")

	out := NewEfixes()
	var current *Efix

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r\n")
		if line == "" || strings.HasPrefix(line, "+") || strings.HasPrefix(line, "=") {
			continue
		}

		if reEfixID.MatchString(line) {
			current = nil
			continue
		}

		if current == nil {
			if m := reEfixLabel.FindStringSubmatch(line); m != nil {
				current = out.open(m[1])
			}
			continue
		}

		if m := reLocation.FindStringSubmatch(line); m != nil {
			current.addFile(m[1])
			continue
		}
		if m := rePackage.FindStringSubmatch(line); m != nil {
			current.addPackage(m[1])
			continue
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read efix listing: %w", err)
	}

	logger.V(1).Info("parsed installed efixes", "count", out.Len())
	return out, nil
}
