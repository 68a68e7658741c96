package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediakit/internal/config"
	"mediakit/internal/deps"
	"mediakit/internal/toolexec"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckTemplateDir(t *testing.T) {
	dir := t.TempDir()
	if r := CheckTemplateDir(dir); !r.Passed || !r.Optional {
		t.Fatalf("existing template dir: %+v", r)
	}
	if r := CheckTemplateDir(filepath.Join(dir, "missing")); !r.Passed {
		t.Fatalf("missing template dir should pass: %+v", r)
	}
	if r := CheckTemplateDir(""); !r.Passed {
		t.Fatalf("unset template dir should pass: %+v", r)
	}
	f := filepath.Join(dir, "file")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckTemplateDir(f); r.Passed {
		t.Fatalf("file template path should fail: %+v", r)
	}
}

func TestCheckWhisperModule(t *testing.T) {
	var got toolexec.Spec
	ok := toolexec.RunnerFunc(func(_ context.Context, spec toolexec.Spec) (toolexec.Result, error) {
		got = spec
		return toolexec.Result{}, nil
	})
	r := CheckWhisperModule(context.Background(), ok, "python3")
	if !r.Passed {
		t.Fatalf("expected pass, got %+v", r)
	}
	if got.Binary != "python3" || strings.Join(got.Args, " ") != "-c import whisper" {
		t.Fatalf("unexpected probe spec: %+v", got)
	}

	failing := toolexec.RunnerFunc(func(context.Context, toolexec.Spec) (toolexec.Result, error) {
		return toolexec.Result{}, &toolexec.Error{
			Tool:       "whisper-probe",
			ExitCode:   1,
			StderrTail: "ModuleNotFoundError: No module named 'whisper'",
			Err:        errors.New("exit status 1"),
		}
	})
	r = CheckWhisperModule(context.Background(), failing, "python3")
	if r.Passed {
		t.Fatal("expected failure when import fails")
	}
	if !strings.Contains(r.Detail, "No module named") {
		t.Fatalf("detail should carry stderr, got %q", r.Detail)
	}

	if r := CheckWhisperModule(context.Background(), ok, " "); r.Passed {
		t.Fatal("expected failure for blank interpreter")
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.YTDLP = "clearly-not-present-ytdlp"
	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(statuses))
	}
	if statuses[0].Available {
		t.Fatal("expected yt-dlp to be reported missing")
	}
	if CheckSystemDeps(nil) != nil {
		t.Fatal("expected nil for nil config")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ConfiguredDirectories(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = base
	cfg.Paths.DownloadsDir = filepath.Join(base, "downloads")
	cfg.Paths.UploadsDir = filepath.Join(base, "uploads")
	cfg.Paths.TranscriptsDir = filepath.Join(base, "transcripts")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.TemplateDir = filepath.Join(base, "template")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), &cfg, nil)
	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestReportReady(t *testing.T) {
	report := Report{
		Dependencies: []deps.Status{{Name: "yt-dlp", Available: true}},
		Checks: []Result{
			{Name: "Data directory", Passed: true},
			{Name: "Template directory", Optional: true},
		},
	}
	if !report.Ready() {
		t.Fatal("optional failures should not block readiness")
	}
	report.Checks = append(report.Checks, Result{Name: "Work directory"})
	if report.Ready() {
		t.Fatal("required failure should block readiness")
	}
}
