package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediakit/internal/config"
	"mediakit/internal/testsupport"
)

const stubInfoJSON = `{"title":"Stub clip","uploader":"tester","duration":65,` +
	`"formats":[{"format_id":"18","ext":"mp4","format_note":"360p","vcodec":"avc1","acodec":"mp4a","filesize":1048576,"width":640,"height":360}]}`

// stubYTDLP prints metadata for --dump-json and otherwise writes a small file
// at the -o template with the extension filled in.
const stubYTDLP = `case "$1" in
--dump-json) echo '` + stubInfoJSON + `' ;;
*)
	while [ $# -gt 0 ]; do
		if [ "$1" = "-o" ]; then out="$2"; fi
		if [ "$1" = "-x" ]; then ext=mp3; fi
		shift
	done
	printf 'media-bytes' > "$(echo "$out" | sed "s/%(ext)s/${ext:-mp4}/")"
	;;
esac`

// stubPython answers the whisper import probe and writes a transcript JSON
// next to the requested output directory.
const stubPython = `if [ "$1" = "-c" ]; then exit 0; fi
audio="$3"
while [ $# -gt 0 ]; do
	if [ "$1" = "--output_dir" ]; then dir="$2"; fi
	shift
done
base=$(basename "$audio")
base="${base%.*}"
printf '{"text":" hello world","language":"en","segments":[{"start":0,"end":1.5,"text":" hello world"}]}' > "$dir/$base.json"`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MEDIAKIT_API_TOKEN", "")

	configPath := filepath.Join(base, "mediakit.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
