package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. Empty child directories are derived
// from DataDir during normalization.
type Paths struct {
	DataDir        string `toml:"data_dir"`
	DownloadsDir   string `toml:"downloads_dir"`
	UploadsDir     string `toml:"uploads_dir"`
	TranscriptsDir string `toml:"transcripts_dir"`
	WorkDir        string `toml:"work_dir"`
	TemplateDir    string `toml:"template_dir"`
	LogDir         string `toml:"log_dir"`
}

// Server contains HTTP listener configuration.
type Server struct {
	Bind                   string `toml:"bind"`
	APIToken               string `toml:"api_token"`
	MaxUploadMB            int    `toml:"max_upload_mb"`
	ReadHeaderTimeout      int    `toml:"read_header_timeout"`
	WriteTimeout           int    `toml:"write_timeout"`
	IdleTimeout            int    `toml:"idle_timeout"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout"`
}

// Tools names the external executables the toolkit shells out to.
type Tools struct {
	YTDLP        string `toml:"ytdlp"`
	FFmpeg       string `toml:"ffmpeg"`
	FFprobe      string `toml:"ffprobe"`
	Python       string `toml:"python"`
	WhisperModel string `toml:"whisper_model"`
}

// Timeouts bounds each external invocation, in seconds.
type Timeouts struct {
	Info         int `toml:"info"`
	Download     int `toml:"download"`
	Transcribe   int `toml:"transcribe"`
	FrameExtract int `toml:"frame_extract"`
	Archive      int `toml:"archive"`
}

// BootAnimation holds build defaults and the identity written to module.prop.
type BootAnimation struct {
	Width             int    `toml:"width"`
	Height            int    `toml:"height"`
	FPS               int    `toml:"fps"`
	Loop              int    `toml:"loop"`
	Name              string `toml:"name"`
	JPEGQuality       int    `toml:"jpeg_quality"`
	ModuleID          string `toml:"module_id"`
	ModuleVersion     string `toml:"module_version"`
	ModuleVersionCode int    `toml:"module_version_code"`
	ModuleAuthor      string `toml:"module_author"`
}

// Retention controls how long generated artifacts and job history are kept.
type Retention struct {
	MaxAgeMinutes        int `toml:"max_age_minutes"`
	SweepIntervalMinutes int `toml:"sweep_interval_minutes"`
	JobHistoryDays       int `toml:"job_history_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Publish configures the optional S3 mirror for finished artifacts.
type Publish struct {
	Enabled         bool   `toml:"enabled"`
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Prefix          string `toml:"prefix"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Metrics toggles the Prometheus endpoint.
type Metrics struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for MediaKit.
//
// Configuration sections by subsystem:
//   - Paths: data, output, scratch and template directories
//   - Server: HTTP bind address, auth token, upload limit, timeouts
//   - Tools: external executables (yt-dlp, ffmpeg, python/whisper)
//   - Timeouts: per-capability wall-clock bounds
//   - BootAnimation: build defaults and module identity
//   - Retention: artifact sweep and job history windows
//   - Logging: log format, level, and retention
//   - Publish: optional S3 artifact mirror
//   - Metrics: Prometheus endpoint
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Tools         Tools         `toml:"tools"`
	Timeouts      Timeouts      `toml:"timeouts"`
	BootAnimation BootAnimation `toml:"bootanimation"`
	Retention     Retention     `toml:"retention"`
	Logging       Logging       `toml:"logging"`
	Publish       Publish       `toml:"publish"`
	Metrics       Metrics       `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediakit.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates every directory the toolkit writes into. It is
// the only place directories are provisioned and runs once at startup.
// TemplateDir is read-only and never created.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.Paths.DownloadsDir,
		c.Paths.UploadsDir,
		c.Paths.TranscriptsDir,
		c.Paths.WorkDir,
		c.Paths.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SweepDirs lists the directories whose stale files are removed by the
// retention sweeper. The workspace root is excluded; workspaces are released
// by their jobs.
func (c *Config) SweepDirs() []string {
	return []string{c.Paths.DownloadsDir, c.Paths.UploadsDir, c.Paths.TranscriptsDir}
}

// JobsDBPath returns the location of the job ledger database.
func (c *Config) JobsDBPath() string {
	return filepath.Join(c.Paths.DataDir, "jobs.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "mediakit.lock")
}

// MaxUploadBytes converts the configured upload limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// ArtifactMaxAge is the age after which swept files are removed.
func (c *Config) ArtifactMaxAge() time.Duration {
	return time.Duration(c.Retention.MaxAgeMinutes) * time.Minute
}

// SweepInterval is the period between retention sweeps.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Retention.SweepIntervalMinutes) * time.Minute
}

// JobHistoryRetention is how long ledger rows are kept. Zero keeps them forever.
func (c *Config) JobHistoryRetention() time.Duration {
	return time.Duration(c.Retention.JobHistoryDays) * 24 * time.Hour
}

// Seconds converts a configured second count to a duration.
func Seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
