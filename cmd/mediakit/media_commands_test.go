package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediakit/internal/jobs"
	"mediakit/internal/services/ytdlp"
	"mediakit/internal/testsupport"
)

type jobsOutput struct {
	Jobs []jobs.Record `json:"jobs"`
}

func listJobs(t *testing.T, env *cliTestEnv, args ...string) []jobs.Record {
	t.Helper()
	out, _, err := runCLI(t, env.configPath, append([]string{"--json", "jobs"}, args...)...)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	var got jobsOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode jobs: %v\n%s", err, out)
	}
	return got.Jobs
}

func TestInfoCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubScript("yt-dlp", stubYTDLP))

	out, _, err := runCLI(t, env.configPath, "info", "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "Stub clip")
	requireContains(t, out, "youtube")
	requireContains(t, out, "1:05")
	requireContains(t, out, "360p")
	requireContains(t, out, "1.0 MiB")

	out, _, err = runCLI(t, env.configPath, "--json", "info", "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("info --json: %v", err)
	}
	var info ytdlp.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Title != "Stub clip" || len(info.Formats) != 1 || info.Formats[0].Resolution != "640x360" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestDownloadCommandRecordsJob(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubScript("yt-dlp", stubYTDLP))

	out, _, err := runCLI(t, env.configPath, "--json", "download", "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	var got downloadOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode download: %v\n%s", err, out)
	}
	if filepath.Ext(got.Filename) != ".mp4" || got.Size != int64(len("media-bytes")) {
		t.Fatalf("unexpected download: %+v", got)
	}
	if filepath.Dir(got.Path) != env.cfg.Paths.DownloadsDir {
		t.Fatalf("expected file in downloads dir, got %s", got.Path)
	}

	records := listJobs(t, env)
	if len(records) != 1 {
		t.Fatalf("expected 1 job, got %d", len(records))
	}
	r := records[0]
	if r.ID != got.JobID || r.Kind != jobs.KindDownload || r.Status != jobs.StatusCompleted || r.Artifact != got.Filename {
		t.Fatalf("unexpected ledger record: %+v", r)
	}
}

func TestDownloadCommandAudio(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubScript("yt-dlp", stubYTDLP))

	out, _, err := runCLI(t, env.configPath, "download", "--format", "mp3", "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	requireContains(t, out, "Downloaded")
	requireContains(t, out, ".mp3")
}

func TestDownloadCommandValidatesBeforeWork(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubScript("yt-dlp", stubYTDLP))

	if _, _, err := runCLI(t, env.configPath, "download", "ftp://example.com/a"); err == nil {
		t.Fatal("expected non-http URL to be rejected")
	}
	if _, _, err := runCLI(t, env.configPath, "download", "--quality", "4k", "https://youtu.be/abc"); err == nil {
		t.Fatal("expected unknown quality to be rejected")
	}
	if _, err := os.Stat(env.cfg.JobsDBPath()); !os.IsNotExist(err) {
		t.Fatalf("expected no ledger before any job ran, stat err=%v", err)
	}
}

func TestDownloadCommandFailureRecorded(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubScript("yt-dlp", "echo 'ERROR: video unavailable' >&2\nexit 1"))

	_, _, err := runCLI(t, env.configPath, "download", "https://youtu.be/gone")
	if err == nil {
		t.Fatal("expected download failure")
	}

	records := listJobs(t, env, "--kind", "download")
	if len(records) != 1 || records[0].Status != jobs.StatusFailed || records[0].ErrorMessage == "" {
		t.Fatalf("expected failed ledger record, got %+v", records)
	}
	entries, _ := os.ReadDir(env.cfg.Paths.DownloadsDir)
	if len(entries) != 0 {
		t.Fatalf("expected downloads dir to stay empty, found %d entries", len(entries))
	}
}

func TestTranscribeLocalFile(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubScript("python3", stubPython))
	audio := filepath.Join(env.baseDir, "memo.mp3")
	testsupport.WriteFile(t, audio, 128)

	out, _, err := runCLI(t, env.configPath, "transcribe", audio)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	requireContains(t, out, "hello world")
	requireContains(t, out, "Language: en")

	out, _, err = runCLI(t, env.configPath, "transcribe", "--segments", "--language", "en", audio)
	if err != nil {
		t.Fatalf("transcribe --segments: %v", err)
	}
	requireContains(t, out, "1.50s")

	records := listJobs(t, env, "--kind", "transcribe")
	if len(records) != 2 || records[0].Detail != "language en" {
		t.Fatalf("unexpected transcribe records: %+v", records)
	}
}

func TestTranscribeURL(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithStubScript("yt-dlp", stubYTDLP),
		testsupport.WithStubScript("python3", stubPython),
	)

	out, _, err := runCLI(t, env.configPath, "--json", "transcribe", "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("transcribe url: %v", err)
	}
	var got transcribeOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode transcript: %v\n%s", err, out)
	}
	if strings.TrimSpace(got.Text) != "hello world" || got.Language != "en" || got.JobID == "" {
		t.Fatalf("unexpected transcript: %+v", got)
	}
}

func TestTranscribeRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env.configPath, "transcribe", filepath.Join(env.baseDir, "missing.mp3"))
	if err == nil || !strings.Contains(err.Error(), "neither an existing file nor a URL") {
		t.Fatalf("expected missing file error, got %v", err)
	}
	if _, _, err := runCLI(t, env.configPath, "transcribe", "--language", "notalanguage", "https://youtu.be/abc"); err == nil {
		t.Fatal("expected unsupported language to be rejected")
	}
}

func TestBootAnimCommandRejectsMissingVideo(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env.configPath, "bootanim", filepath.Join(env.baseDir, "missing.mp4"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing video error, got %v", err)
	}
	records := listJobs(t, env, "--kind", "bootanimation")
	if len(records) != 1 || records[0].Status != jobs.StatusFailed {
		t.Fatalf("expected failed bootanimation record, got %+v", records)
	}
}
