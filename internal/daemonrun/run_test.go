package daemonrun

import (
	"os"
	"path/filepath"
	"testing"

	"mediakit/internal/config"
	"mediakit/internal/logging"
)

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "mediakit-1.log")
	second := filepath.Join(dir, "mediakit-2.log")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte(filepath.Base(p)), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := ensureCurrentLogPointer(dir, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(dir, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, logging.LogFileName))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "mediakit-2.log" {
		t.Fatalf("pointer resolves to %q", data)
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	if got := ReadPIDFile(&cfg); got != 0 {
		t.Fatalf("expected 0 without pid file, got %d", got)
	}
	if err := writePIDFile(filepath.Join(cfg.Paths.DataDir, "mediakit.pid")); err != nil {
		t.Fatal(err)
	}
	if got := ReadPIDFile(&cfg); got != os.Getpid() {
		t.Fatalf("ReadPIDFile = %d, want %d", got, os.Getpid())
	}
}
