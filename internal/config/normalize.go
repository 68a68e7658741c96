package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeTools()
	c.normalizeBootAnimation()
	c.normalizePublish()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	derived := []struct {
		key   string
		value *string
		child string
	}{
		{"paths.downloads_dir", &c.Paths.DownloadsDir, "downloads"},
		{"paths.uploads_dir", &c.Paths.UploadsDir, "uploads"},
		{"paths.transcripts_dir", &c.Paths.TranscriptsDir, "transcripts"},
		{"paths.work_dir", &c.Paths.WorkDir, "bootanim_work"},
		{"paths.template_dir", &c.Paths.TemplateDir, "templates/magisk"},
		{"paths.log_dir", &c.Paths.LogDir, "logs"},
	}
	for _, entry := range derived {
		if strings.TrimSpace(*entry.value) == "" {
			*entry.value = filepath.Join(c.Paths.DataDir, entry.child)
			continue
		}
		if *entry.value, err = expandPath(*entry.value); err != nil {
			return fmt.Errorf("%s: %w", entry.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("MEDIAKIT_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = defaultIdleTimeout
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = defaultShutdownTimeout
	}
}

func (c *Config) normalizeTools() {
	c.Tools.YTDLP = strings.TrimSpace(c.Tools.YTDLP)
	if c.Tools.YTDLP == "" {
		c.Tools.YTDLP = defaultYTDLPBinary
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	c.Tools.Python = strings.TrimSpace(c.Tools.Python)
	if c.Tools.Python == "" {
		c.Tools.Python = defaultPythonBinary
	}
	c.Tools.WhisperModel = strings.TrimSpace(c.Tools.WhisperModel)
	if c.Tools.WhisperModel == "" {
		c.Tools.WhisperModel = defaultWhisperModel
	}
}

func (c *Config) normalizeBootAnimation() {
	b := &c.BootAnimation
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		b.Name = defaultBootName
	}
	b.ModuleID = strings.TrimSpace(b.ModuleID)
	if b.ModuleID == "" {
		b.ModuleID = defaultModuleID
	}
	b.ModuleVersion = strings.TrimSpace(b.ModuleVersion)
	if b.ModuleVersion == "" {
		b.ModuleVersion = defaultModuleVersion
	}
	b.ModuleAuthor = strings.TrimSpace(b.ModuleAuthor)
	if b.ModuleAuthor == "" {
		b.ModuleAuthor = defaultModuleAuthor
	}
	if b.JPEGQuality == 0 {
		b.JPEGQuality = defaultJPEGQuality
	}
}

func (c *Config) normalizePublish() {
	p := &c.Publish
	p.Bucket = strings.TrimSpace(p.Bucket)
	p.Region = strings.TrimSpace(p.Region)
	if p.Region == "" {
		p.Region = defaultPublishRegion
	}
	p.Prefix = strings.Trim(strings.TrimSpace(p.Prefix), "/")
	p.Endpoint = strings.TrimSpace(p.Endpoint)
	if p.AccessKeyID == "" {
		if value, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok {
			p.AccessKeyID = strings.TrimSpace(value)
		}
	}
	if p.SecretAccessKey == "" {
		if value, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
			p.SecretAccessKey = strings.TrimSpace(value)
		}
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultPublishTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
