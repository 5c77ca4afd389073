package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/dlminvestments/ansible-power-aix/internal/system"
)

const (
	GeninstallCommand = "/usr/sbin/geninstall"
	DfCommand         = "/bin/df"
	ChfsCommand       = "/usr/sbin/chfs"

	// LppSourceDir is the lpp source layout geninstall expects for interim fixes.
	LppSourceDir = "flrtvc_lpp_source/emgr/ppc"

	growSize = "size=+100M"
)

// Installer copies packages into an lpp source under Dir and installs them with geninstall.
type Installer struct {
	Runner system.Runner
	Dir    string
	// GrowFS retries a failed copy once after growing the filesystem by 100M.
	GrowFS bool
}

// Result holds the installer output lines and the operator messages of an Install.
type Result struct {
	Output   []string
	Messages []string
}

// Target is the lpp source directory packages are staged into.
func (in *Installer) Target() string {
	return filepath.Join(in.Dir, LppSourceDir)
}

// Install stages paths in the given order and installs them. An empty list is a no-op.
func (in *Installer) Install(ctx context.Context, paths []string) (Result, error) {
	logger := log.FromContext(ctx).WithName("install")
	var res Result
	if len(paths) == 0 {
		return res, nil
	}

	target := in.Target()
	if err := os.MkdirAll(target, 0o755); err != nil {
		return res, fmt.Errorf("create lpp source %s: %w", target, err)
	}

	var names []string
	for _, p := range paths {
		if err := in.stage(ctx, p, target); err != nil {
			msg := fmt.Sprintf("Cannot copy file %s to %s", p, target)
			logger.Error(err, "stage failed", "epkg", p)
			res.Messages = append(res.Messages, msg)
			continue
		}
		names = append(names, filepath.Base(p))
	}
	if len(names) == 0 {
		return res, ErrNothingCopied
	}

	args := append([]string{"-d", target}, names...)
	logger.Info("perform customization", "dir", target, "efixes", strings.Join(names, " "))
	out := in.Runner.Run(ctx, GeninstallCommand, args...)
	res.Output = splitLines(out.Stdout)
	if !out.OK() {
		res.Messages = append(res.Messages, fmt.Sprintf("Cannot perform customization, rc=%d", out.ExitCode))
		logger.Error(out.Err, "geninstall failed", "rc", out.ExitCode, "stderr", out.Stderr)
		return res, fmt.Errorf("%w: rc=%d", ErrInstallFailed, out.ExitCode)
	}
	return res, nil
}

func (in *Installer) stage(ctx context.Context, src, dir string) error {
	err := copyFile(src, filepath.Join(dir, filepath.Base(src)))
	if err == nil || !in.GrowFS {
		return err
	}
	log.FromContext(ctx).V(1).Info("copy failed, growing filesystem", "dir", dir, "err", err.Error())
	if gerr := Grow(ctx, in.Runner, dir); gerr != nil {
		return fmt.Errorf("%w (%v)", err, gerr)
	}
	return copyFile(src, filepath.Join(dir, filepath.Base(src)))
}

// Grow adds 100M to the filesystem mounted over dir.
func Grow(ctx context.Context, r system.Runner, dir string) error {
	out := r.Run(ctx, DfCommand, "-c", dir)
	if !out.OK() {
		return fmt.Errorf("%w for %s: %s", ErrGrowFailed, dir, out)
	}
	lines := splitLines(out.Stdout)
	if len(lines) < 2 {
		return fmt.Errorf("%w for %s: unexpected df output", ErrGrowFailed, dir)
	}
	fields := strings.Split(lines[1], ":")
	if len(fields) < 7 {
		return fmt.Errorf("%w for %s: unexpected df output", ErrGrowFailed, dir)
	}
	mount := fields[6]

	out = r.Run(ctx, ChfsCommand, "-a", growSize, mount)
	if !out.OK() {
		return fmt.Errorf("%w for %s: %s", ErrGrowFailed, dir, out)
	}
	log.FromContext(ctx).V(1).Info("filesystem increased", "mount", mount)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
