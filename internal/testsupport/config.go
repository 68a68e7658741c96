package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mediakit/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It listens on an ephemeral port and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.DownloadsDir = filepath.Join(base, "data", "downloads")
	cfgVal.Paths.UploadsDir = filepath.Join(base, "data", "uploads")
	cfgVal.Paths.TranscriptsDir = filepath.Join(base, "data", "transcripts")
	cfgVal.Paths.WorkDir = filepath.Join(base, "data", "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithProvisionedDirectories creates every configured directory up front.
func WithProvisionedDirectories() ConfigOption {
	return func(b *configBuilder) {
		if err := b.cfg.EnsureDirectories(); err != nil {
			b.t.Fatalf("ensure directories: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external tools are
// stubbed. Each stub exits zero without output.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.Tools.YTDLP, b.cfg.Tools.FFmpeg, b.cfg.Tools.FFprobe, b.cfg.Tools.Python}
		}
		for _, name := range names {
			writeStub(b, name, "#!/bin/sh\nexit 0\n")
		}
	}
}

// WithStubScript installs a stub executable whose body is the given shell
// script and prepends its directory to PATH.
func WithStubScript(name, script string) ConfigOption {
	return func(b *configBuilder) {
		writeStub(b, name, "#!/bin/sh\n"+script+"\n")
	}
}

func writeStub(b *configBuilder, name, script string) {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}

	oldPath := os.Getenv("PATH")
	if list := filepath.SplitList(oldPath); len(list) > 0 && list[0] == binDir {
		return
	}
	b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath)
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
