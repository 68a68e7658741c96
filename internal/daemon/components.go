package daemon

import (
	"errors"
	"fmt"
	"log/slog"

	"mediakit/internal/bootanim"
	"mediakit/internal/config"
	"mediakit/internal/jobs"
	"mediakit/internal/metrics"
	"mediakit/internal/publish"
	"mediakit/internal/services/whisper"
	"mediakit/internal/services/ytdlp"
	"mediakit/internal/toolexec"
	"mediakit/internal/workspace"
)

// Components bundles the capability services shared by the daemon and the
// one-shot CLI commands.
type Components struct {
	Config      *config.Config
	Logger      *slog.Logger
	Metrics     *metrics.Registry
	Runner      toolexec.Runner
	Store       *jobs.Store
	Recorder    *jobs.Recorder
	Workspaces  *workspace.Manager
	Media       *ytdlp.Client
	Transcriber *whisper.Service
	Builder     *bootanim.Builder
	Mirror      *publish.Mirror
}

// NewComponents provisions the configured directories, opens the job ledger
// and constructs every capability service. It is the single place
// directories are created.
func NewComponents(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("components require config and logger")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("provision directories: %w", err)
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.New()
	}
	runner := toolexec.NewExecRunner(logger, toolexec.WithObserver(reg.ObserveTool))

	store, err := jobs.Open(cfg.JobsDBPath())
	if err != nil {
		return nil, fmt.Errorf("open job ledger: %w", err)
	}

	workspaces := workspace.NewManager(cfg.Paths.WorkDir, logger)

	builderOpts := bootanim.OptionsFromConfig(cfg)
	builderOpts.Runner = runner
	builderOpts.Workspaces = workspaces
	builderOpts.Logger = logger
	builderOpts.Metrics = reg

	return &Components{
		Config:     cfg,
		Logger:     logger,
		Metrics:    reg,
		Runner:     runner,
		Store:      store,
		Recorder:   jobs.NewRecorder(store, reg, logger),
		Workspaces: workspaces,
		Media: ytdlp.New(ytdlp.Config{
			Binary:          cfg.Tools.YTDLP,
			DownloadsDir:    cfg.Paths.DownloadsDir,
			InfoTimeout:     config.Seconds(cfg.Timeouts.Info),
			DownloadTimeout: config.Seconds(cfg.Timeouts.Download),
		}, runner, logger),
		Transcriber: whisper.NewService(whisper.Config{
			Python:    cfg.Tools.Python,
			Model:     cfg.Tools.WhisperModel,
			OutputDir: cfg.Paths.TranscriptsDir,
			Timeout:   config.Seconds(cfg.Timeouts.Transcribe),
		}, runner, logger),
		Builder: bootanim.NewBuilder(builderOpts),
		Mirror:  publish.FromConfig(cfg, logger, reg),
	}, nil
}

// Close releases the job ledger.
func (c *Components) Close() error {
	if c == nil || c.Store == nil {
		return nil
	}
	return c.Store.Close()
}
