package sweep

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediakit/internal/logging"
)

// Result contains the outcome of a cleanup pass.
type Result struct {
	Removed []string
	Bytes   int64
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

func (r *Result) merge(other Result) {
	r.Removed = append(r.Removed, other.Removed...)
	r.Bytes += other.Bytes
	r.Errors = append(r.Errors, other.Errors...)
}

// CleanStale removes regular files in dir last modified before cutoff.
// Subdirectories are left alone. A missing dir is not an error.
func CleanStale(ctx context.Context, dir string, cutoff time.Time, logger *slog.Logger) Result {
	result := Result{}

	dir = strings.TrimSpace(dir)
	if dir == "" {
		return result
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		}
		return result
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove expired file",
					logging.String("file_path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "sweep_failed"),
					logging.String(logging.FieldErrorHint, "check directory permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		result.Bytes += info.Size()
		if logger != nil {
			logger.Debug("removed expired file",
				logging.String("file_path", path),
				logging.Duration("age", cutoff.Sub(info.ModTime())),
				logging.String(logging.FieldEventType, "sweep_removed"),
			)
		}
	}

	return result
}

// Usage reports the number of regular files in dir and their total size.
func Usage(dir string) (int, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	var (
		count int
		size  int64
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
	}
	return count, size, nil
}
