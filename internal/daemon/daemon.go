package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"mediakit/internal/httpapi"
	"mediakit/internal/logging"
	"mediakit/internal/preflight"
	"mediakit/internal/sweep"
)

// Daemon owns the long-running process: the single-instance lock, orphan
// workspace purge, the retention sweeper and the HTTP API.
type Daemon struct {
	components *Components
	logger     *slog.Logger
	sweeper    *sweep.Sweeper
	api        *httpapi.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool             `json:"running"`
	PID           int              `json:"pid"`
	Listen        string           `json:"listen,omitempty"`
	LockFilePath  string           `json:"lock_file"`
	JobsDBPath    string           `json:"jobs_db"`
	WorkspaceRoot string           `json:"workspace_root"`
	Readiness     preflight.Report `json:"readiness"`
}

// New wires the sweeper and API server around c.
func New(c *Components) (*Daemon, error) {
	if c == nil || c.Config == nil || c.Logger == nil {
		return nil, errors.New("daemon requires components with config and logger")
	}
	cfg := c.Config
	d := &Daemon{
		components: c,
		logger:     logging.NewComponentLogger(c.Logger, "daemon"),
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
	}

	sweepOpts := []sweep.Option{
		sweep.WithInterval(cfg.SweepInterval()),
		sweep.WithMetrics(c.Metrics),
	}
	if c.Store != nil {
		sweepOpts = append(sweepOpts, sweep.WithPruner(c.Store, cfg.JobHistoryRetention()))
	}
	d.sweeper = sweep.New(cfg.SweepDirs(), cfg.ArtifactMaxAge(), c.Logger, sweepOpts...)

	api, err := httpapi.New(httpapi.Options{
		Config:      cfg,
		Logger:      c.Logger,
		Media:       c.Media,
		Transcriber: c.Transcriber,
		Builder:     c.Builder,
		Recorder:    c.Recorder,
		Mirror:      c.Mirror,
		Metrics:     c.Metrics,
		Status:      d.readiness,
	})
	if err != nil {
		return nil, fmt.Errorf("create api server: %w", err)
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, clears orphaned workspaces, then launches
// the sweeper and the API server. Requests are only accepted after the purge.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mediakit daemon instance is already running")
	}

	if removed, err := d.components.Workspaces.PurgeOrphans(); err != nil {
		logging.WarnWithContext(d.logger, "orphan workspace purge incomplete", "workspace_purge_failed",
			logging.Error(err),
			logging.Int("removed", len(removed)),
			logging.String(logging.FieldErrorHint, "check permissions on the work directory"),
			logging.String(logging.FieldImpact, "stale workspaces remain on disk"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.sweeper.Run(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("mediakit daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("listen", d.api.Addr()),
		logging.Duration("sweep_interval", d.sweeper.Interval()),
	)
	return nil
}

// Stop shuts down the API server and sweeper and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if the next start fails"),
		)
	}
	d.running.Store(false)
	d.logger.Info("mediakit daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and releases the components it owns.
func (d *Daemon) Close() error {
	d.Stop()
	return d.components.Close()
}

// Addr returns the API listen address once started.
func (d *Daemon) Addr() string { return d.api.Addr() }

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	cfg := d.components.Config
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Listen:        d.api.Addr(),
		LockFilePath:  d.lockPath,
		JobsDBPath:    cfg.JobsDBPath(),
		WorkspaceRoot: d.components.Workspaces.Root(),
		Readiness:     d.readiness(ctx),
	}
}

func (d *Daemon) readiness(ctx context.Context) preflight.Report {
	return preflight.Run(ctx, d.components.Config, d.components.Runner)
}

// Locked reports whether another process holds the daemon lock at path.
func Locked(path string) (bool, error) {
	probe := flock.New(path)
	ok, err := probe.TryLock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if ok {
		_ = probe.Unlock()
		return false, nil
	}
	return true, nil
}
