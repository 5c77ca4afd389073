package install

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/dlminvestments/ansible-power-aix/internal/system"
)

var reRemove = regexp.MustCompile(`^\d+\s+(\S+)\s+REMOVE\s+(\S+)\s*$`)

// RemoveInstalled removes every interim fix listed by emgr -P. It returns the operator
// messages of the run and ErrRemoveFailed if a listing or any removal failed.
func RemoveInstalled(ctx context.Context, r system.Runner, emgr string) ([]string, error) {
	logger := log.FromContext(ctx).WithName("remove")
	if emgr == "" {
		emgr = system.EmgrCommand
	}

	out := r.Run(ctx, emgr, "-P")
	if !out.OK() {
		logger.Error(out.Err, "cannot list interim fixes", "stderr", out.Stderr)
		return []string{"Cannot list interim fix to remove: " + out.Stderr}, fmt.Errorf("%w: %s", ErrRemoveFailed, out)
	}

	var msgs []string
	failed := false
	for _, label := range installedLabels(out.Stdout) {
		res := r.Run(ctx, emgr, "-r", "-L", label)
		for _, line := range splitLines(res.Stdout) {
			m := reRemove.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil {
				continue
			}
			if strings.Contains(m[2], "SUCCESS") {
				logger.Info("efix removed", "label", m[1])
				msgs = append(msgs, fmt.Sprintf("efix %s removed, please check if you want to reinstall it", m[1]))
				continue
			}
			logger.Info("efix not removed", "label", m[1], "result", m[2])
			msgs = append(msgs, fmt.Sprintf("Cannot remove efix %s, see logs for details", m[1]))
			failed = true
		}
	}
	if failed {
		return msgs, ErrRemoveFailed
	}
	return msgs, nil
}

// installedLabels reads the label column of emgr -P, skipping its two header lines.
// Labels are returned in first-seen order.
func installedLabels(out string) []string {
	lines := splitLines(out)
	if len(lines) >= 2 {
		lines = lines[2:]
	}
	seen := sets.New[string]()
	var labels []string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		label := fields[len(fields)-1]
		if seen.Has(label) {
			continue
		}
		seen.Insert(label)
		labels = append(labels, label)
	}
	return labels
}
