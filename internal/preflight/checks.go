package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mediakit/internal/config"
	"mediakit/internal/deps"
	"mediakit/internal/services"
	"mediakit/internal/toolexec"
)

const whisperProbeTimeout = 30 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTemplateDir reports on the optional boot animation module template.
// A missing directory passes because packages build without template files.
func CheckTemplateDir(path string) Result {
	const name = "Template directory"
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Passed: true, Optional: true, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (absent, packages ship without template files)", path)}
		}
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckWhisperModule verifies the configured interpreter can import the
// whisper package. It uses a 30-second timeout and a single attempt.
func CheckWhisperModule(ctx context.Context, runner toolexec.Runner, python string) Result {
	const name = "Whisper module"
	python = strings.TrimSpace(python)
	if python == "" {
		return Result{Name: name, Detail: "python interpreter not configured"}
	}
	if runner == nil {
		return Result{Name: name, Detail: "no runner available"}
	}
	_, err := runner.Run(ctx, toolexec.Spec{
		Tool:    "whisper-probe",
		Binary:  python,
		Args:    []string{"-c", "import whisper"},
		Timeout: whisperProbeTimeout,
	})
	if err != nil {
		return Result{Name: name, Detail: summarizeProbeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("importable with %s", python)}
}

// CheckSystemDeps evaluates the external binaries the configured toolkit
// shells out to. Both the daemon and the CLI status command use this to
// avoid duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	requirements := []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Tools.YTDLP,
			Description: "Required for metadata lookups and downloads",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for audio extraction and boot animation frames",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Optional; validates boot animation sources before extraction",
			Optional:    true,
		},
		{
			Name:        "Python",
			Command:     cfg.Tools.Python,
			Description: "Required for whisper transcription",
		},
	}
	return deps.CheckBinaries(requirements)
}

// summarizeProbeError produces a human-readable summary for probe failures.
func summarizeProbeError(err error) string {
	if errors.Is(err, services.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return "probe timed out"
	}
	var toolErr *toolexec.Error
	if errors.As(err, &toolErr) {
		if tail := strings.TrimSpace(toolErr.StderrTail); tail != "" {
			return fmt.Sprintf("import failed (exit %d): %s", toolErr.ExitCode, toolexec.TruncateTail(tail, 200))
		}
		return fmt.Sprintf("import failed (exit %d)", toolErr.ExitCode)
	}
	return err.Error()
}
