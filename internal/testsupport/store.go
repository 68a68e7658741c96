package testsupport

import (
	"context"
	"testing"

	"mediakit/internal/config"
	"mediakit/internal/jobs"
)

// MustOpenStore opens the job ledger for tests and registers cleanup. The
// data directory is created when missing.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := jobs.Open(cfg.JobsDBPath())
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordJob inserts a finished job. A non-empty failure marks it failed.
func RecordJob(t testing.TB, store *jobs.Store, id string, kind jobs.Kind, source, artifact, failure string) {
	t.Helper()

	ctx := context.Background()
	if err := store.Start(ctx, id, kind, source); err != nil {
		t.Fatalf("store.Start: %v", err)
	}
	if failure != "" {
		if err := store.Fail(ctx, id, failure); err != nil {
			t.Fatalf("store.Fail: %v", err)
		}
		return
	}
	if err := store.Complete(ctx, id, artifact, ""); err != nil {
		t.Fatalf("store.Complete: %v", err)
	}
}
