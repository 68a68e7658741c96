package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"mediakit/internal/jobs"
	"mediakit/internal/testsupport"
)

func TestStatusCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithProvisionedDirectories(),
	)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.DownloadsDir, "clip.mp4"), 2048)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.RecordJob(t, store, "job-1", jobs.KindDownload, "https://youtu.be/a", "clip.mp4", "")

	out, _, err := runCLI(t, env.configPath, "--json", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var got statusOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if got.Daemon.Running {
		t.Fatal("daemon should not be reported running")
	}
	if !got.Ready {
		t.Fatalf("expected ready with stubbed tools: %+v", got.Readiness)
	}
	if len(got.Readiness.Dependencies) != 4 {
		t.Fatalf("expected 4 dependencies, got %+v", got.Readiness.Dependencies)
	}
	var sawProbe bool
	for _, c := range got.Readiness.Checks {
		if strings.Contains(strings.ToLower(c.Name), "whisper") {
			sawProbe = true
		}
	}
	if !sawProbe {
		t.Fatal("expected whisper probe in checks")
	}
	if got.Jobs[jobs.StatusCompleted] != 1 {
		t.Fatalf("expected one completed job, got %+v", got.Jobs)
	}
	if len(got.Storage) == 0 || got.Storage[0].Files != 1 || got.Storage[0].Bytes != 2048 {
		t.Fatalf("unexpected storage usage: %+v", got.Storage)
	}
	if got.Publish != "disabled" || got.ConfigPath != env.configPath {
		t.Fatalf("unexpected summary: publish=%q config=%q", got.Publish, got.ConfigPath)
	}
}

func TestStatusCommandReportsMissingTools(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Tools.YTDLP = "mediakit-test-missing-ytdlp"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, env.configPath, "status", "--skip-probe")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "not ready")
	requireContains(t, out, "not running")
}

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("Daemon", statusOK, "listening", false)
	if plain != "  Daemon:          [OK] listening" {
		t.Fatalf("unexpected plain line %q", plain)
	}
	colored := renderStatusLine("Daemon", statusError, "", true)
	if !strings.Contains(colored, ansiRed+"[ERROR]"+ansiReset) {
		t.Fatalf("expected colored tag in %q", colored)
	}
	if strings.HasSuffix(colored, " ") {
		t.Fatalf("expected no trailing space without message: %q", colored)
	}
}

func TestPublishSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if got := publishSummary(cfg); got != "disabled" {
		t.Fatalf("publishSummary disabled = %q", got)
	}
	cfg.Publish.Enabled = true
	cfg.Publish.Bucket = "media"
	cfg.Publish.Prefix = "kit"
	if got := publishSummary(cfg); got != "s3://media/kit" {
		t.Fatalf("publishSummary = %q", got)
	}
}
