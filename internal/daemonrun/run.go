package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mediakit/internal/config"
	"mediakit/internal/daemon"
	"mediakit/internal/deps"
	"mediakit/internal/logging"
	"mediakit/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the MediaKit daemon and blocks until SIGINT/SIGTERM or ctx is
// cancelled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logPath := logging.RunLogPath(cfg.Paths.LogDir, time.Now())

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: logging.RunLogPattern, Exclude: []string{logPath}},
	)
	logDependencySnapshot(logger, cfg)

	components, err := daemon.NewComponents(cfg, logger)
	if err != nil {
		logger.Error("initialize components", logging.Error(err))
		return err
	}

	d, err := daemon.New(components)
	if err != nil {
		_ = components.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "mediakit.pid")
	if err := writePIDFile(pidPath); err != nil {
		logging.WarnWithContext(logger, "failed to write pid file", "pid_file_failed",
			logging.String("path", pidPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "process managers cannot locate the daemon by pid file"),
		)
	}
	defer os.Remove(pidPath)

	<-signalCtx.Done()
	logger.Info("mediakit daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// ReadPIDFile returns the pid recorded by a running daemon, or 0 when absent.
func ReadPIDFile(cfg *config.Config) int {
	if cfg == nil {
		return 0
	}
	data, err := os.ReadFile(filepath.Join(cfg.Paths.DataDir, "mediakit.pid"))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	statuses := preflight.CheckSystemDeps(cfg)
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, s := range statuses {
		key := strings.ToLower(strings.ReplaceAll(s.Name, "-", ""))
		attrs = append(attrs,
			logging.Bool(key+"_available", s.Available),
			logging.String(key+"_binary", s.Command),
		)
	}
	attrs = append(attrs,
		logging.String("whisper_model", cfg.Tools.WhisperModel),
		logging.Bool("publish_enabled", cfg.Publish.Enabled),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.Server.APIToken) != ""),
	)
	logger.Info("dependency snapshot", logging.Args(attrs...)...)

	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		logging.WarnWithContext(logger, "required tools missing", "dependency_missing",
			logging.Strings("missing", missing),
			logging.String(logging.FieldErrorHint, "install the tools or point [tools] at them"),
			logging.String(logging.FieldImpact, "requests needing these tools will fail"),
		)
	}
}
