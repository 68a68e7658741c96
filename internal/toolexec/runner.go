package toolexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"mediakit/internal/logging"
)

const (
	// SurfaceTailBytes bounds the stderr excerpt attached to returned errors.
	SurfaceTailBytes = 500
	// LogTailBytes bounds the stderr kept for diagnostics logging.
	LogTailBytes = 4096
	// MaxStdoutBytes caps captured stdout.
	MaxStdoutBytes = 16 << 20

	waitDelay = 5 * time.Second
)

// Spec describes one external invocation.
type Spec struct {
	Tool          string
	Binary        string
	Args          []string
	Timeout       time.Duration
	Dir           string
	Env           []string
	CaptureStdout bool
}

// Result reports the outcome of a successful invocation.
type Result struct {
	Stdout     []byte
	StderrTail string
	Duration   time.Duration
}

// Runner executes external tools.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, spec Spec) (Result, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, spec Spec) (Result, error) {
	return f(ctx, spec)
}

// Observer receives the outcome of every invocation, typically for metrics.
type Observer func(tool string, elapsed time.Duration, err error)

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithObserver registers an invocation observer.
func WithObserver(observe Observer) Option {
	return func(r *ExecRunner) {
		r.observe = observe
	}
}

// ExecRunner runs tools as child processes.
type ExecRunner struct {
	logger  *slog.Logger
	observe Observer
}

// NewExecRunner builds a process runner that logs through logger.
func NewExecRunner(logger *slog.Logger, opts ...Option) *ExecRunner {
	r := &ExecRunner{logger: logging.NewComponentLogger(logger, "toolexec")}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run launches spec.Binary and waits for it to exit or for the timeout to fire.
func (r *ExecRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	tool := spec.Tool
	if tool == "" {
		tool = spec.Binary
	}
	logger := logging.WithContext(ctx, r.logger)

	runCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, spec.Binary, spec.Args...) //nolint:gosec
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	stderr := newTailBuffer(LogTailBytes)
	cmd.Stderr = stderr
	var stdout *cappedBuffer
	if spec.CaptureStdout {
		stdout = newCappedBuffer(MaxStdoutBytes)
		cmd.Stdout = stdout
	}
	configureProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	logger.Debug("running external tool",
		logging.String("tool", tool),
		logging.Strings("args", spec.Args),
		logging.Duration("timeout", spec.Timeout),
	)

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	result := Result{StderrTail: stderr.Tail(SurfaceTailBytes), Duration: elapsed}
	if stdout != nil {
		result.Stdout = stdout.Bytes()
		if runErr == nil && stdout.Truncated() {
			runErr = fmt.Errorf("stdout exceeded %d bytes", MaxStdoutBytes)
		}
	}

	var err error
	if runErr != nil {
		err = newError(tool, runErr, runCtx, spec.Timeout, stderr.Tail(SurfaceTailBytes))
		logging.WarnWithContext(logger, "external tool failed", "tool_failed",
			logging.String("tool", tool),
			logging.Int("exit_code", exitCode(runErr)),
			logging.Bool("timed_out", errors.Is(err, context.DeadlineExceeded)),
			logging.Duration("duration", elapsed),
			logging.String("stderr_tail", stderr.Tail(LogTailBytes)),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "check that "+spec.Binary+" is installed and the input is valid"),
			logging.String(logging.FieldImpact, "request fails with an external tool error"),
		)
	} else {
		logger.Debug("external tool finished",
			logging.String("tool", tool),
			logging.Duration("duration", elapsed),
		)
	}
	if r.observe != nil {
		r.observe(tool, elapsed, err)
	}
	return result, err
}
