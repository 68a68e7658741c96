package daemon_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"mediakit/internal/config"
	"mediakit/internal/daemon"
	"mediakit/internal/logging"
	"mediakit/internal/testsupport"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t)
}

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	components, err := daemon.NewComponents(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewComponents: %v", err)
	}
	d, err := daemon.New(components)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNewComponentsProvisionsDirectories(t *testing.T) {
	cfg := testConfig(t)
	components, err := daemon.NewComponents(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewComponents: %v", err)
	}
	defer components.Close()

	for _, dir := range []string{cfg.Paths.DownloadsDir, cfg.Paths.UploadsDir, cfg.Paths.TranscriptsDir, cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", dir, err)
		}
	}
	if _, err := os.Stat(cfg.JobsDBPath()); err != nil {
		t.Fatalf("expected ledger at %s: %v", cfg.JobsDBPath(), err)
	}
	if components.Metrics == nil {
		t.Fatal("expected metrics registry when enabled")
	}
	if components.Mirror.Enabled() {
		t.Fatal("mirror should be disabled by default")
	}
}

func TestNewComponentsRequiresConfig(t *testing.T) {
	if _, err := daemon.NewComponents(nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := daemon.New(nil); err == nil {
		t.Fatal("expected error for nil components")
	}
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testConfig(t)
	d := newDaemon(t, cfg)

	orphan := filepath.Join(cfg.Paths.WorkDir, "left-behind")
	if err := os.MkdirAll(filepath.Join(orphan, "part0"), 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("expected orphaned workspace to be purged, stat err = %v", err)
	}

	resp, err := http.Get("http://" + d.Addr() + "/api/languages")
	if err != nil {
		t.Fatalf("GET languages: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("languages status = %d", resp.StatusCode)
	}

	locked, err := daemon.Locked(cfg.LockPath())
	if err != nil {
		t.Fatalf("Locked: %v", err)
	}
	if !locked {
		t.Fatal("expected lock to be held while running")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	locked, err = daemon.Locked(cfg.LockPath())
	if err != nil {
		t.Fatalf("Locked: %v", err)
	}
	if locked {
		t.Fatal("expected lock to be released after stop")
	}
}

func TestSecondDaemonRejected(t *testing.T) {
	cfg := testConfig(t)
	first := newDaemon(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	second := newDaemon(t, cfg)
	if err := second.Start(ctx); err == nil {
		t.Fatal("expected second daemon on the same data dir to fail")
	}
}

func TestLockedWithoutDaemon(t *testing.T) {
	locked, err := daemon.Locked(filepath.Join(t.TempDir(), "mediakit.lock"))
	if err != nil {
		t.Fatalf("Locked: %v", err)
	}
	if locked {
		t.Fatal("expected unlocked")
	}
}
