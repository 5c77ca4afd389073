package epkg

import (
	"context"
	"strings"

	"github.com/dlminvestments/ansible-power-aix/internal/system"
)

// Describer returns the metadata text of an epkg: LABEL, PACKAGING DATE, PACKAGE and
// LOCATION lines, and prerequisite lines "<fileset> <min> <max>".
type Describer interface {
	Describe(ctx context.Context, path string) (string, error)
}

// DescriberFunc adapts a function to Describer.
type DescriberFunc func(ctx context.Context, path string) (string, error)

func (f DescriberFunc) Describe(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// EmgrDescriber previews an epkg with "emgr -dXv3 -e <path>" and keeps only the paragraphs
// mentioning PREREQ or PACKAG, which is where the fields the extractor reads live.
type EmgrDescriber struct {
	Runner system.Runner
}

func (d *EmgrDescriber) Describe(ctx context.Context, path string) (string, error) {
	res := d.Runner.Run(ctx, system.EmgrCommand, "-dXv3", "-e", path)
	text := Paragraphs(res.Stdout, "PREREQ", "PACKAG")
	if !res.OK() {
		return text, res.Err
	}
	return text, nil
}

// Paragraphs returns the blank-line separated paragraphs of text containing any of keys.
func Paragraphs(text string, keys ...string) string {
	var out []string
	var para []string
	flush := func() {
		if len(para) == 0 {
			return
		}
		block := strings.Join(para, "\n")
		for _, k := range keys {
			if strings.Contains(block, k) {
				out = append(out, block)
				break
			}
		}
		para = para[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		para = append(para, line)
	}
	flush()
	return strings.Join(out, "\n\n")
}
