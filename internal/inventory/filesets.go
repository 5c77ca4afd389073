package inventory

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/dlminvestments/ansible-power-aix/internal/level"
)

// Fileset is one installed software component and its current level.
type Fileset struct {
	Package string
	Name    string
	Level   level.Level
}

// Filesets maps a fileset name to its installed level.
type Filesets map[string]Fileset

// Lookup returns the installed fileset with the given name.
func (f Filesets) Lookup(name string) (Fileset, bool) {
	fs, ok := f[name]
	return fs, ok
}

// ParseFilesets reads colon-delimited lslpp records:
//
//	bos:bos.rte:7.1.5.0: : :C: :Base Operating System Runtime
//
// Lines with fewer than three fields, and lines whose level is not numeric, are skipped and
// reported in the returned warnings. Only a read failure is returned as an error.
func ParseFilesets(ctx context.Context, r io.Reader) (Filesets, []string, error) {
	logger := log.FromContext(ctx).WithName("filesets")

	out := Filesets{}
	var warnings []string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		fields := strings.Split(line, ":")
		if len(fields) < 3 {
			msg := fmt.Sprintf("fileset listing is malformed at line %d: %q", lineNo, line)
			logger.V(1).Info("skipping malformed line", "line", lineNo, "text", line)
			warnings = append(warnings, msg)
			continue
		}

		name := fields[1]
		lvl, err := level.Parse(fields[2])
		if err != nil {
			msg := fmt.Sprintf("fileset %s ignored: %v", name, err)
			logger.V(1).Info("skipping fileset with unparsable level", "fileset", name, "level", fields[2])
			warnings = append(warnings, msg)
			continue
		}
		out[name] = Fileset{Package: fields[0], Name: name, Level: lvl}
	}
	if err := sc.Err(); err != nil {
		return nil, warnings, fmt.Errorf("read fileset listing: %w", err)
	}

	logger.V(1).Info("parsed fileset levels", "count", len(out), "warnings", len(warnings))
	return out, warnings, nil
}

// WriteFilesets writes the table back in lslpp colon-delimited form, sorted by fileset name.
func WriteFilesets(w io.Writer, f Filesets) error {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)

	bw := bufio.NewWriter(w)
	for _, name := range names {
		fs := f[name]
		pkg := fs.Package
		if pkg == "" {
			pkg = name
		}
		if _, err := fmt.Fprintf(bw, "%s:%s:%s: : :C: :\n", pkg, fs.Name, fs.Level); err != nil {
			return err
		}
	}
	return bw.Flush()
}
