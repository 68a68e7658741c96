package workspace_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mediakit/internal/logging"
	"mediakit/internal/services"
	"mediakit/internal/workspace"
)

func TestAcquireCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	mgr := workspace.NewManager(root, logging.NewNop())

	ws, err := mgr.Acquire("job-1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if ws.Root != filepath.Join(root, "job-1") {
		t.Fatalf("unexpected root %q", ws.Root)
	}
	info, err := os.Stat(ws.FramesDir())
	if err != nil || !info.IsDir() {
		t.Fatalf("expected frames dir: %v", err)
	}
	if filepath.Base(ws.FramesDir()) != "part0" {
		t.Fatalf("unexpected frames dir %q", ws.FramesDir())
	}
	if !mgr.Exists("job-1") {
		t.Fatal("expected workspace to exist")
	}
}

func TestAcquireRefusesExistingWorkspace(t *testing.T) {
	mgr := workspace.NewManager(t.TempDir(), logging.NewNop())
	if _, err := mgr.Acquire("dup"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	_, err := mgr.Acquire("dup")
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io error for shared workspace, got %v", err)
	}
}

func TestAcquireRejectsUnsafeIDs(t *testing.T) {
	mgr := workspace.NewManager(t.TempDir(), logging.NewNop())
	for _, id := range []string{"", " ", "..", ".", "a/b", `a\b`, " padded"} {
		if _, err := mgr.Acquire(id); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("Acquire(%q) expected validation error, got %v", id, err)
		}
	}
}

func TestAcquireUnwritableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	parent := t.TempDir()
	if err := os.Chmod(parent, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(parent, 0o755) })

	mgr := workspace.NewManager(filepath.Join(parent, "work"), logging.NewNop())
	if _, err := mgr.Acquire("job"); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	mgr := workspace.NewManager(t.TempDir(), logging.NewNop())
	ws, err := mgr.Acquire("job-2")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ws.FramesDir(), "00001.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := mgr.Release("job-2"); err != nil {
			t.Fatalf("Release #%d: %v", i+1, err)
		}
	}
	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Fatalf("expected workspace removed, err=%v", err)
	}
	if err := mgr.Release("never-acquired"); err != nil {
		t.Fatalf("release of unknown job: %v", err)
	}
}

func TestWithReleasesOnEveryExitPath(t *testing.T) {
	mgr := workspace.NewManager(t.TempDir(), logging.NewNop())

	var seen string
	if err := mgr.With(context.Background(), "ok", func(_ context.Context, ws workspace.Workspace) error {
		seen = ws.Root
		if _, err := os.Stat(ws.FramesDir()); err != nil {
			t.Fatalf("expected frames dir during job: %v", err)
		}
		return nil
	}); err != nil {
		t.Fatalf("With: %v", err)
	}
	if _, err := os.Stat(seen); !os.IsNotExist(err) {
		t.Fatal("expected workspace removed after success")
	}

	boom := errors.New("boom")
	err := mgr.With(context.Background(), "fail", func(context.Context, workspace.Workspace) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if mgr.Exists("fail") {
		t.Fatal("expected workspace removed after failure")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = mgr.With(context.Background(), "panic", func(context.Context, workspace.Workspace) error { panic("kaboom") })
	}()
	if mgr.Exists("panic") {
		t.Fatal("expected workspace removed after panic")
	}
}

func TestPurgeOrphans(t *testing.T) {
	root := t.TempDir()
	mgr := workspace.NewManager(root, logging.NewNop())
	for _, id := range []string{"a", "b"} {
		if _, err := mgr.Acquire(id); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := mgr.PurgeOrphans()
	if err != nil {
		t.Fatalf("PurgeOrphans: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed, got %v", removed)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Fatalf("expected empty root, got %d entries", len(entries))
	}

	missing := workspace.NewManager(filepath.Join(root, "absent"), logging.NewNop())
	if removed, err := missing.PurgeOrphans(); err != nil || len(removed) != 0 {
		t.Fatalf("expected no-op for missing root, got %v %v", removed, err)
	}
}
