package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediakit/internal/config"
	"mediakit/internal/logging"
	"mediakit/internal/services"
)

func tempLogPath(t *testing.T) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	read := func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
	return logPath, read
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath, read := tempLogPath(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := read(); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath, read := tempLogPath(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if content := read(); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersJobSubjectAndFields(t *testing.T) {
	logPath, read := tempLogPath(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "bootanim")
	logger.Info("stage completed",
		logging.String(logging.FieldJobID, "0123456789abcdef"),
		logging.String(logging.FieldStage, "frames"),
		logging.Int("frames", 60),
		logging.Int64("size_bytes", 2048),
		logging.Duration("stage_duration", 1500*time.Millisecond),
		logging.String("workspace_path", "/tmp/x"),
	)

	content := read()
	for _, want := range []string{"INFO [bootanim] Job 01234567 (frames) – stage completed", "- Frames: 60", "- Size: 2.0 KiB", "- Duration: 1.5s", "+ 1 more field hidden"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestNewJSONLogger(t *testing.T) {
	logPath, read := tempLogPath(t)
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["msg"] != "json message" || payload["level"] != "info" || payload["k"] != "v" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logPath, read := tempLogPath(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible")
	content := read()
	if strings.Contains(content, "hidden") || !strings.Contains(content, "visible") {
		t.Fatalf("expected info threshold, got %q", content)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "job-123")
	ctx = services.WithStage(ctx, "frames")
	ctx = services.WithRequestID(ctx, "req-xyz")

	logPath, read := tempLogPath(t)
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WithContext(ctx, logger).Info("contextual log")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	want := map[string]string{
		logging.FieldJobID:         "job-123",
		logging.FieldStage:         "frames",
		logging.FieldCorrelationID: "req-xyz",
	}
	for key, value := range want {
		if payload[key] != value {
			t.Fatalf("field %s = %v, want %s", key, payload[key], value)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath, read := tempLogPath(t)
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "publish failed", "publish_failed", logging.String(logging.FieldImpact, "artifact only stored locally"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "publish_failed" {
		t.Fatalf("unexpected event type %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
	if payload[logging.FieldImpact] != "artifact only stored locally" {
		t.Fatalf("expected explicit impact to win, got %v", payload[logging.FieldImpact])
	}
}

func TestCleanupOldLogsRemovesExpired(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.log")
	newPath := filepath.Join(dir, "new.log")
	for _, p := range []string{oldPath, newPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 5, logging.RetentionTarget{Dir: dir, Pattern: "*.log"})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, err=%v", err)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Fatalf("expected new log kept: %v", err)
	}
}

func TestFormatSubject(t *testing.T) {
	tests := map[string][2]string{
		"Job abcdefgh (frames)": {"abcdefghijkl", "frames"},
		"Job abc":               {"abc", ""},
		"frames":                {"", "frames"},
		"":                      {"", ""},
	}
	for want, in := range tests {
		if got := logging.FormatSubject(in[0], in[1]); got != want {
			t.Fatalf("FormatSubject(%q,%q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestRunLogPathMatchesRetentionPattern(t *testing.T) {
	dir := t.TempDir()
	path := logging.RunLogPath(dir, time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	if filepath.Dir(path) != dir {
		t.Fatalf("expected path under %s, got %s", dir, path)
	}
	if ok, err := filepath.Match(logging.RunLogPattern, filepath.Base(path)); err != nil || !ok {
		t.Fatalf("%s does not match %s", filepath.Base(path), logging.RunLogPattern)
	}
	if ok, _ := filepath.Match(logging.RunLogPattern, logging.LogFileName); ok {
		t.Fatal("the current-log pointer must not be pruned")
	}
}

func TestConsoleDebugListsEveryField(t *testing.T) {
	logPath, read := tempLogPath(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("tool").Debug("invoking", logging.String("binary", "ffmpeg"), logging.Strings("args", []string{"-i", "in.mp4"}))

	content := read()
	for _, want := range []string{"DEBUG", "invoking", "tool.binary: ffmpeg", "tool.args:"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestCleanupOldLogsHonoursExclusions(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "mediakit-current.log")
	other := filepath.Join(dir, "notes.txt")
	past := time.Now().AddDate(0, 0, -40)
	for _, p := range []string{current, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	target := logging.RetentionTarget{Dir: dir, Pattern: logging.RunLogPattern, Exclude: []string{current}}
	if removed := logging.CleanupOldLogs(nil, 30, target); removed != 0 {
		t.Fatalf("expected nothing removed, got %d", removed)
	}
	if removed := logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: dir}); removed != 0 {
		t.Fatalf("retention 0 must disable pruning, removed %d", removed)
	}
}
