package ffprobe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"mediakit/internal/services"
	"mediakit/internal/toolexec"
)

const sampleReport = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio"},
    {"index": 2, "codec_name": "aac", "codec_type": "audio"}
  ],
  "format": {"filename": "in.mp4", "nb_streams": 3, "duration": "123.45", "size": "1000", "format_name": "mov,mp4"}
}`

func TestResultHelpers(t *testing.T) {
	result, err := Parse([]byte(sampleReport))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if w, h := result.VideoDimensions(); w != 1920 || h != 1080 {
		t.Fatalf("unexpected dimensions %dx%d", w, h)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if w, h := result.VideoDimensions(); w != 0 || h != 0 {
		t.Fatalf("expected no dimensions, got %dx%d", w, h)
	}
}

func TestInspectUsesRunner(t *testing.T) {
	var got toolexec.Spec
	runner := toolexec.RunnerFunc(func(_ context.Context, spec toolexec.Spec) (toolexec.Result, error) {
		got = spec
		return toolexec.Result{Stdout: []byte(sampleReport)}, nil
	})

	result, err := Inspect(context.Background(), runner, "", "/tmp/in.mp4", 0)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.Format.FormatName != "mov,mp4" {
		t.Fatalf("unexpected format %q", result.Format.FormatName)
	}
	if got.Binary != "ffprobe" || got.Tool != "ffprobe" || !got.CaptureStdout || got.Timeout != DefaultTimeout {
		t.Fatalf("unexpected spec: %+v", got)
	}
	if args := strings.Join(got.Args, " "); !strings.HasSuffix(args, "-- /tmp/in.mp4") {
		t.Fatalf("expected path after --, got %q", args)
	}
}

func TestInspectErrors(t *testing.T) {
	failing := toolexec.RunnerFunc(func(context.Context, toolexec.Spec) (toolexec.Result, error) {
		return toolexec.Result{}, &toolexec.Error{Tool: "ffprobe", ExitCode: 1, StderrTail: "moov atom not found"}
	})
	_, err := Inspect(context.Background(), failing, "ffprobe", "in.mp4", time.Second)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}

	garbage := toolexec.RunnerFunc(func(context.Context, toolexec.Spec) (toolexec.Result, error) {
		return toolexec.Result{Stdout: []byte("not json")}, nil
	})
	if _, err := Inspect(context.Background(), garbage, "ffprobe", "in.mp4", 0); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Inspect(context.Background(), garbage, "ffprobe", " ", 0); err == nil {
		t.Fatal("expected empty path error")
	}
}
