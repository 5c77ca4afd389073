package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

const (
	LslppCommand = "/bin/lslpp"
	EmgrCommand  = "/usr/sbin/emgr"

	LslppFile = "lslpp.txt"
	EmgrFile  = "emgr.txt"
)

// Facts holds the raw system-state listings of one run and where they were saved.
type Facts struct {
	LslppPath string
	EmgrPath  string
	Lslpp     []byte
	Emgr      []byte
}

type factTask struct {
	name string
	path string
	args []string
	out  *[]byte
}

// GatherFacts lists installed filesets (lslpp -Lcq) and installed interim fixes (emgr -lv3)
// concurrently and saves each listing under workdir. Both tasks are always awaited; if
// either fails the error aggregates every failure and wraps ErrFactsUnavailable.
func GatherFacts(ctx context.Context, r Runner, workdir string) (*Facts, error) {
	logger := log.FromContext(ctx).WithName("facts")

	facts := &Facts{
		LslppPath: filepath.Join(workdir, LslppFile),
		EmgrPath:  filepath.Join(workdir, EmgrFile),
	}
	tasks := []factTask{
		{name: "list filesets (lslpp)", path: facts.LslppPath, args: []string{LslppCommand, "-Lcq"}, out: &facts.Lslpp},
		{name: "list fixes (emgr)", path: facts.EmgrPath, args: []string{EmgrCommand, "-lv3"}, out: &facts.Emgr},
	}

	errs := make([]error, len(tasks))
	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			errs[i] = collect(ctx, r, task)
			return errs[i]
		})
	}
	_ = g.Wait()

	if agg := utilerrors.NewAggregate(errs); agg != nil {
		logger.Error(agg, "cannot gather system facts")
		return nil, fmt.Errorf("%w: %w", ErrFactsUnavailable, agg)
	}
	logger.V(1).Info("system facts gathered", "lslpp", facts.LslppPath, "emgr", facts.EmgrPath)
	return facts, nil
}

func collect(ctx context.Context, r Runner, task factTask) error {
	if err := os.Remove(task.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to %s: remove stale %s: %w", task.name, task.path, err)
	}

	res := r.Run(ctx, task.args[0], task.args[1:]...)
	if !res.OK() {
		return fmt.Errorf("failed to %s, %s does not exist: %w", task.name, task.path, res.Err)
	}
	if err := os.WriteFile(task.path, []byte(res.Stdout), 0o644); err != nil {
		return fmt.Errorf("failed to %s: write %s: %w", task.name, task.path, err)
	}
	*task.out = []byte(res.Stdout)
	return nil
}
