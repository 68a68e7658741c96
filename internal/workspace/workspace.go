package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediakit/internal/logging"
	"mediakit/internal/services"
)

const (
	// FramesDirName is the frame subdirectory referenced by the descriptor.
	FramesDirName = "part0"
	// DescriptorName is the boot animation descriptor file name.
	DescriptorName = "desc.txt"
	// AnimationName is the intermediate animation archive.
	AnimationName = "bootanimation.zip"
	// PackageName is the staged distributable package before promotion.
	PackageName = "module.zip"
)

// Workspace is the scratch directory exclusively owned by one job.
type Workspace struct {
	JobID string
	Root  string
}

// FramesDir returns the directory frames are extracted into.
func (w Workspace) FramesDir() string { return filepath.Join(w.Root, FramesDirName) }

// DescriptorPath returns the descriptor location.
func (w Workspace) DescriptorPath() string { return filepath.Join(w.Root, DescriptorName) }

// AnimationPath returns the intermediate archive location.
func (w Workspace) AnimationPath() string { return filepath.Join(w.Root, AnimationName) }

// PackagePath returns the staged package location.
func (w Workspace) PackagePath() string { return filepath.Join(w.Root, PackageName) }

// Manager hands out per-job workspaces under a single root directory.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager returns a manager rooted at root.
func NewManager(root string, logger *slog.Logger) *Manager {
	return &Manager{root: root, logger: logging.NewComponentLogger(logger, "workspace")}
}

// Root returns the directory holding all workspaces.
func (m *Manager) Root() string { return m.root }

// Acquire creates the workspace for jobID including its frames subdirectory.
// It fails if a workspace for the same job already exists.
func (m *Manager) Acquire(jobID string) (Workspace, error) {
	if err := validateJobID(jobID); err != nil {
		return Workspace{}, err
	}
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return Workspace{}, services.Wrap(services.ErrIO, "workspace", "acquire", "create workspace root", err)
	}
	ws := Workspace{JobID: jobID, Root: filepath.Join(m.root, jobID)}
	if err := os.Mkdir(ws.Root, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return Workspace{}, services.Wrap(services.ErrIO, "workspace", "acquire", fmt.Sprintf("workspace for job %s already exists", jobID), err)
		}
		return Workspace{}, services.Wrap(services.ErrIO, "workspace", "acquire", "create job directory", err)
	}
	if err := os.Mkdir(ws.FramesDir(), 0o755); err != nil {
		_ = os.RemoveAll(ws.Root)
		return Workspace{}, services.Wrap(services.ErrIO, "workspace", "acquire", "create frames directory", err)
	}
	m.logger.Debug("workspace acquired",
		logging.String(logging.FieldJobID, jobID),
		logging.String("workspace_path", ws.Root),
	)
	return ws, nil
}

// Release removes the workspace for jobID recursively. Releasing an absent
// workspace is not an error.
func (m *Manager) Release(jobID string) error {
	if err := validateJobID(jobID); err != nil {
		return err
	}
	path := filepath.Join(m.root, jobID)
	if err := os.RemoveAll(path); err != nil {
		logging.WarnWithContext(m.logger, "workspace release failed; directory remains", "workspace_release_failed",
			logging.String(logging.FieldJobID, jobID),
			logging.String("workspace_path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the work directory"),
			logging.String(logging.FieldImpact, "scratch files remain until the next daemon start"),
		)
		return services.Wrap(services.ErrIO, "workspace", "release", "remove job directory", err)
	}
	m.logger.Debug("workspace released", logging.String(logging.FieldJobID, jobID))
	return nil
}

// With acquires a workspace, runs fn, and releases the workspace on every exit
// path including panics. A release failure is joined to fn's error.
func (m *Manager) With(ctx context.Context, jobID string, fn func(context.Context, Workspace) error) (err error) {
	ws, err := m.Acquire(jobID)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := m.Release(jobID); relErr != nil {
			err = errors.Join(err, relErr)
		}
	}()
	return fn(ctx, ws)
}

// PurgeOrphans removes every workspace left under the root, typically by a
// previous process that exited mid-job. It must run before jobs are accepted.
func (m *Manager) PurgeOrphans() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrIO, "workspace", "purge", "list workspace root", err)
	}
	var removed []string
	var errs []error
	for _, entry := range entries {
		path := filepath.Join(m.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, entry.Name())
	}
	if len(removed) > 0 {
		m.logger.Info("orphaned workspaces purged",
			logging.String(logging.FieldEventType, "workspace_purged"),
			logging.Int("removed", len(removed)),
		)
	}
	if len(errs) > 0 {
		return removed, services.Wrap(services.ErrIO, "workspace", "purge", "remove orphaned workspace", errors.Join(errs...))
	}
	return removed, nil
}

// Exists reports whether a workspace for jobID is present on disk.
func (m *Manager) Exists(jobID string) bool {
	if validateJobID(jobID) != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(m.root, jobID))
	return err == nil
}

func validateJobID(jobID string) error {
	trimmed := strings.TrimSpace(jobID)
	switch {
	case trimmed == "":
		return services.Validationf("job id is required")
	case trimmed != jobID, trimmed == ".", trimmed == "..":
		return services.Validationf("invalid job id %q", jobID)
	case strings.ContainsAny(jobID, `/\`) || strings.ContainsRune(jobID, 0):
		return services.Validationf("invalid job id %q", jobID)
	}
	return nil
}
