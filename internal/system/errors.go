package system

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFactsUnavailable indicates that at least one system-state listing could not be produced.
	ErrFactsUnavailable = errors.New("system facts unavailable")
)

// CommandError describes a command that did not exit cleanly.
type CommandError struct {
	Command  []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed rc=%d", strings.Join(e.Command, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
