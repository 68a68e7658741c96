package toolexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"mediakit/internal/services"
)

// Error describes a failed external invocation.
type Error struct {
	Tool       string
	ExitCode   int
	StderrTail string
	TimedOut   bool
	Timeout    time.Duration
	Err        error
}

func newError(tool string, runErr error, runCtx context.Context, timeout time.Duration, tail string) *Error {
	e := &Error{
		Tool:       tool,
		ExitCode:   exitCode(runErr),
		StderrTail: tail,
		Timeout:    timeout,
		Err:        runErr,
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		e.TimedOut = true
	}
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Tool)
	switch {
	case e.TimedOut:
		fmt.Fprintf(&b, " timed out after %s", e.Timeout)
	case errors.Is(e.Err, exec.ErrNotFound):
		b.WriteString(" is not installed or not on PATH")
	case e.ExitCode >= 0:
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	default:
		fmt.Fprintf(&b, " failed: %v", e.Err)
	}
	if e.StderrTail != "" {
		b.WriteString(": ")
		b.WriteString(e.StderrTail)
	}
	return b.String()
}

// Unwrap exposes the classification markers alongside the underlying cause.
func (e *Error) Unwrap() []error {
	errs := []error{services.ErrExternalTool}
	if e.TimedOut {
		errs = append(errs, services.ErrTimeout, context.DeadlineExceeded)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// TruncateTail returns at most n trailing bytes of s, trimmed and made valid UTF-8.
func TruncateTail(s string, n int) string {
	if n > 0 && len(s) > n {
		s = s[len(s)-n:]
	}
	return strings.TrimSpace(strings.ToValidUTF8(s, ""))
}
