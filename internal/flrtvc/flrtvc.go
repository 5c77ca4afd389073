// Package flrtvc runs the Fix Level Recommendation Tool vulnerability checker and extracts
// the fix download URLs from its compact report.
package flrtvc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/dlminvestments/ansible-power-aix/internal/system"
)

// ErrReportFailed indicates the checker did not produce a report.
var ErrReportFailed = errors.New("failed to get flrtvc report")

// ReportFile is the name of the saved report in the destination directory.
const ReportFile = "flrtvc.txt"

// Params selects what the checker reports on.
type Params struct {
	// APARType is "sec", "hiper", "all" or empty; "all" and empty report both kinds.
	APARType string
	// APARCSV is an already transferred APAR CSV file.
	APARCSV string
	// Filesets filters the filesets checked.
	Filesets string
	// SaveDir, when set, receives a copy of the report.
	SaveDir string
	Verbose bool
}

// Args builds the checker command line for the two saved listings.
func (p Params) Args(tool, emgrFile, lslppFile string) []string {
	args := []string{tool, "-e", emgrFile, "-l", lslppFile}
	if p.APARType != "" && p.APARType != "all" {
		args = append(args, "-t", p.APARType)
	}
	if p.APARCSV != "" {
		args = append(args, "-f", p.APARCSV)
	}
	if p.Filesets != "" {
		args = append(args, "-g", p.Filesets)
	}
	return args
}

// Run executes the checker in compact mode and returns the report lines. The checker exits
// 2 when it finds vulnerabilities with fixes, which counts as success.
//
// Saving the report to SaveDir is best effort; its failure is returned as a message.
func Run(ctx context.Context, r system.Runner, tool string, facts *system.Facts, p Params) ([]string, []string, error) {
	logger := log.FromContext(ctx).WithName("flrtvc")
	var msgs []string

	args := p.Args(tool, facts.EmgrPath, facts.LslppPath)
	res := r.Run(ctx, args[0], args[1:]...)
	if !res.OK(0, 2) {
		logger.Error(res.Err, "checker failed", "cmd", strings.Join(args, " "))
		return nil, msgs, fmt.Errorf("%w, rc=%d stderr: %s", ErrReportFailed, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	report := splitLines(res.Stdout)

	if p.SaveDir != "" {
		if p.Verbose {
			args = append(args, "-v")
		}
		saved := r.Run(ctx, args[0], args[1:]...)
		if !saved.OK(0, 2) {
			msg := fmt.Sprintf("Failed to save flrtvc report in file, rc=%d", saved.ExitCode)
			logger.Error(saved.Err, msg)
			msgs = append(msgs, msg)
		}
		path := filepath.Join(p.SaveDir, ReportFile)
		if err := os.WriteFile(path, []byte(saved.Stdout), 0o644); err != nil {
			msgs = append(msgs, fmt.Sprintf("Failed to write %s: %v", path, err))
		}
	}

	logger.V(1).Info("checker report", "lines", len(report))
	return report, msgs, nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
