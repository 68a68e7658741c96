package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediakit/internal/config"
)

const (
	// LogFileName names the stable pointer to the newest daemon log.
	LogFileName = "mediakit.log"
	// RunLogPattern matches the per-run daemon logs that retention prunes.
	RunLogPattern = "mediakit-*.log"

	runLogStampLayout = "20060102T150405.000Z"
)

// Options describes logger construction parameters. OutputPaths and
// ErrorOutputPaths accept "stdout", "stderr" or file paths; both lists feed
// the same handler and duplicates are written once.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

// RunLogPath returns the per-run log file for a daemon started at now.
func RunLogPath(dir string, now time.Time) string {
	return filepath.Join(dir, "mediakit-"+now.UTC().Format(runLogStampLayout)+".log")
}

// New constructs a slog logger. Unknown levels fall back to info; unknown
// formats are rejected.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errOutputs := opts.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}
	w, err := openOutputs(append(append([]string{}, outputs...), errOutputs...))
	if err != nil {
		return nil, err
	}

	withSource := opts.Development || level.Level() <= slog.LevelDebug
	if format == "json" {
		return slog.New(newJSONHandler(w, level, withSource)), nil
	}
	return slog.New(newConsoleHandler(w, level, withSource)), nil
}

// NewFromConfig logs to stdout and, when a log directory is configured, to
// LogFileName inside it.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}
	opts := Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		path := filepath.Join(dir, LogFileName)
		opts.OutputPaths = append(opts.OutputPaths, path)
		opts.ErrorOutputPaths = append(opts.ErrorOutputPaths, path)
	}
	return New(opts)
}

func parseLevel(value string) slog.Level {
	var level slog.Level
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "warning":
		return slog.LevelWarn
	default:
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return slog.LevelInfo
		}
	}
	return level
}

// openOutputs resolves the named outputs into one writer. File outputs are
// opened for append and their parent directories created.
func openOutputs(names []string) (io.Writer, error) {
	seen := make(map[string]bool, len(names))
	writers := make([]io.Writer, 0, len(names))
	var errs []error
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		switch name {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			f, err := openLogFile(name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			writers = append(writers, f)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}
