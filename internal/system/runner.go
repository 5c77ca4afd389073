package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	utilexec "k8s.io/utils/exec"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Result is the outcome of one command. Err is nil only when the command ran and exited 0.
type Result struct {
	Command  []string
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// OK reports whether the command exited with one of the accepted codes (0 when none given).
func (r Result) OK(accepted ...int) bool {
	if len(accepted) == 0 {
		return r.Err == nil
	}
	if r.ExitCode < 0 {
		return false
	}
	for _, code := range accepted {
		if r.ExitCode == code {
			return true
		}
	}
	return false
}

func (r Result) String() string {
	return fmt.Sprintf("cmd=%q rc=%d stdout=%q stderr=%q", strings.Join(r.Command, " "), r.ExitCode, r.Stdout, r.Stderr)
}

// Runner runs host commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// ExecRunner runs commands through k8s.io/utils/exec with a C locale so output is parsable.
type ExecRunner struct {
	Exec utilexec.Interface
	Env  []string
}

var localeEnv = []string{"LANG=C", "LC_ALL=C", "LC_MESSAGES=C", "LC_CTYPE=C"}

func NewRunner() *ExecRunner {
	return &ExecRunner{Exec: utilexec.New(), Env: append(os.Environ(), localeEnv...)}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	logger := log.FromContext(ctx)
	res := Result{Command: append([]string{name}, args...)}

	cmd := r.Exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.SetStdout(&stdout)
	cmd.SetStderr(&stderr)
	if len(r.Env) > 0 {
		cmd.SetEnv(r.Env)
	}

	logger.V(1).Info("run command", "cmd", strings.Join(res.Command, " "))
	err := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	if err == nil {
		return res
	}

	var exitErr utilexec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitStatus()
	} else {
		res.ExitCode = -1
	}
	res.Err = &CommandError{Command: res.Command, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	logger.V(1).Info("command failed", "cmd", strings.Join(res.Command, " "), "rc", res.ExitCode)
	return res
}
