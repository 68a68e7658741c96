package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediakit/internal/config"
	"mediakit/internal/daemon"
	"mediakit/internal/daemonrun"
	"mediakit/internal/jobs"
	"mediakit/internal/preflight"
	"mediakit/internal/sweep"
	"mediakit/internal/toolexec"
)

type daemonState struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Listen  string `json:"listen"`
	Detail  string `json:"detail,omitempty"`
}

type directoryUsage struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Files int    `json:"files"`
	Bytes int64  `json:"bytes"`
}

type statusOutput struct {
	ConfigPath   string              `json:"config_path"`
	ConfigExists bool                `json:"config_exists"`
	Ready        bool                `json:"ready"`
	Daemon       daemonState         `json:"daemon"`
	Readiness    preflight.Report    `json:"readiness"`
	Storage      []directoryUsage    `json:"storage"`
	Jobs         map[jobs.Status]int `json:"jobs,omitempty"`
	Publish      string              `json:"publish"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipProbe bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report daemon, dependency and storage status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var runner toolexec.Runner
			if !skipProbe {
				logger, err := ctx.logger(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				runner = toolexec.NewExecRunner(logger)
			}

			status := collectStatus(cmd.Context(), cfg, runner)
			status.ConfigPath = ctx.configPath
			status.ConfigExists = ctx.configExists
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			renderStatus(cmd.OutOrStdout(), status, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipProbe, "skip-probe", false, "Skip the whisper import probe")
	return cmd
}

func collectStatus(ctx context.Context, cfg *config.Config, runner toolexec.Runner) statusOutput {
	report := preflight.Run(ctx, cfg, runner)
	out := statusOutput{
		Ready:     report.Ready(),
		Daemon:    probeDaemon(cfg),
		Readiness: report,
		Publish:   publishSummary(cfg),
	}

	for _, d := range []struct{ name, path string }{
		{"Downloads", cfg.Paths.DownloadsDir},
		{"Uploads", cfg.Paths.UploadsDir},
		{"Transcripts", cfg.Paths.TranscriptsDir},
	} {
		files, size, err := sweep.Usage(d.path)
		if err != nil {
			continue
		}
		out.Storage = append(out.Storage, directoryUsage{Name: d.name, Path: d.path, Files: files, Bytes: size})
	}

	// The ledger is only read when it already exists so status never
	// provisions state.
	if _, err := os.Stat(cfg.JobsDBPath()); err == nil {
		if store, err := jobs.Open(cfg.JobsDBPath()); err == nil {
			if counts, err := store.Counts(ctx); err == nil {
				out.Jobs = counts
			}
			store.Close()
		}
	}
	return out
}

func probeDaemon(cfg *config.Config) daemonState {
	state := daemonState{Listen: cfg.Server.Bind}
	locked, err := daemon.Locked(cfg.LockPath())
	if err != nil {
		state.Detail = err.Error()
		return state
	}
	state.Running = locked
	if locked {
		state.PID = daemonrun.ReadPIDFile(cfg)
	}
	return state
}

func publishSummary(cfg *config.Config) string {
	if !cfg.Publish.Enabled {
		return "disabled"
	}
	target := "s3://" + cfg.Publish.Bucket
	if cfg.Publish.Prefix != "" {
		target += "/" + cfg.Publish.Prefix
	}
	return target
}

func renderStatus(out io.Writer, s statusOutput, colorize bool) {
	fmt.Fprintln(out, renderSectionHeader("Daemon", colorize))
	if s.Daemon.Running {
		msg := "listening on " + s.Daemon.Listen
		if s.Daemon.PID > 0 {
			msg = fmt.Sprintf("pid %d, %s", s.Daemon.PID, msg)
		}
		fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, msg, colorize))
	} else {
		msg := "not running"
		if s.Daemon.Detail != "" {
			msg += " (" + s.Daemon.Detail + ")"
		}
		fmt.Fprintln(out, renderStatusLine("Daemon", statusInfo, msg, colorize))
	}
	configMsg := s.ConfigPath
	if !s.ConfigExists {
		configMsg += " (defaults)"
	}
	fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configMsg, colorize))
	fmt.Fprintln(out, renderStatusLine("Publish", statusInfo, s.Publish, colorize))

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
	for _, d := range s.Readiness.Dependencies {
		kind, msg := statusOK, d.Path
		if !d.Available {
			kind, msg = statusError, d.Detail
			if d.Optional {
				kind = statusWarn
			}
		}
		fmt.Fprintln(out, renderStatusLine(d.Name, kind, msg, colorize))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSectionHeader("Checks", colorize))
	for _, c := range s.Readiness.Checks {
		kind := statusOK
		if !c.Passed {
			kind = statusError
			if c.Optional {
				kind = statusWarn
			}
		}
		fmt.Fprintln(out, renderStatusLine(c.Name, kind, c.Detail, colorize))
	}

	if len(s.Storage) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(s.Storage))
		for _, u := range s.Storage {
			rows = append(rows, []string{u.Name, fmt.Sprint(u.Files), humanize.IBytes(uint64(u.Bytes)), u.Path})
		}
		fmt.Fprintln(out, renderTable([]string{"Directory", "Files", "Size", "Path"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft}, colorize))
	}

	if len(s.Jobs) > 0 {
		parts := make([]string, 0, len(s.Jobs))
		for _, st := range []jobs.Status{jobs.StatusRunning, jobs.StatusCompleted, jobs.StatusFailed} {
			parts = append(parts, fmt.Sprintf("%d %s", s.Jobs[st], st))
		}
		fmt.Fprintln(out, renderStatusLine("Jobs", statusInfo, strings.Join(parts, ", "), colorize))
	}

	fmt.Fprintln(out)
	if s.Ready {
		fmt.Fprintln(out, renderStatusLine("Overall", statusOK, "ready", colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Overall", statusError, "not ready", colorize))
	}
}
