package preflight

import (
	"context"

	"mediakit/internal/config"
	"mediakit/internal/deps"
	"mediakit/internal/toolexec"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Report aggregates dependency and filesystem readiness.
type Report struct {
	Dependencies []deps.Status `json:"dependencies"`
	Checks       []Result      `json:"checks"`
}

// Ready reports whether every required dependency and check passed.
func (r Report) Ready() bool {
	if len(deps.MissingRequired(r.Dependencies)) > 0 {
		return false
	}
	for _, c := range r.Checks {
		if !c.Passed && !c.Optional {
			return false
		}
	}
	return true
}

// RunAll executes the directory checks for the given config. When runner is
// non-nil the whisper import probe runs as well.
func RunAll(ctx context.Context, cfg *config.Config, runner toolexec.Runner) []Result {
	if cfg == nil {
		return nil
	}

	dirs := []struct {
		name string
		path string
	}{
		{"Data directory", cfg.Paths.DataDir},
		{"Downloads directory", cfg.Paths.DownloadsDir},
		{"Uploads directory", cfg.Paths.UploadsDir},
		{"Transcripts directory", cfg.Paths.TranscriptsDir},
		{"Work directory", cfg.Paths.WorkDir},
		{"Log directory", cfg.Paths.LogDir},
	}
	results := make([]Result, 0, len(dirs)+2)
	for _, d := range dirs {
		results = append(results, CheckDirectoryAccess(d.name, d.path))
	}
	results = append(results, CheckTemplateDir(cfg.Paths.TemplateDir))

	if runner != nil {
		results = append(results, CheckWhisperModule(ctx, runner, cfg.Tools.Python))
	}
	return results
}

// Run collects the full readiness report.
func Run(ctx context.Context, cfg *config.Config, runner toolexec.Runner) Report {
	return Report{
		Dependencies: CheckSystemDeps(cfg),
		Checks:       RunAll(ctx, cfg, runner),
	}
}
