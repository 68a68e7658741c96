package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateBootAnimation(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	// transcribe-url downloads and then transcribes inside one response.
	longest := c.Timeouts.Download + c.Timeouts.Transcribe
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < longest {
		return fmt.Errorf("server.write_timeout (%ds) must be at least timeouts.download + timeouts.transcribe (%ds) or 0 to disable", c.Server.WriteTimeout, longest)
	}
	if c.Server.WriteTimeout < 0 {
		return errors.New("server.write_timeout must be non-negative")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	checks := []struct {
		key   string
		value int
	}{
		{"timeouts.info", c.Timeouts.Info},
		{"timeouts.download", c.Timeouts.Download},
		{"timeouts.transcribe", c.Timeouts.Transcribe},
		{"timeouts.frame_extract", c.Timeouts.FrameExtract},
		{"timeouts.archive", c.Timeouts.Archive},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive", check.key)
		}
	}
	return nil
}

func (c *Config) validateBootAnimation() error {
	b := c.BootAnimation
	if b.Width < 100 || b.Width > 3840 {
		return errors.New("bootanimation.width must be between 100 and 3840")
	}
	if b.Height < 100 || b.Height > 3840 {
		return errors.New("bootanimation.height must be between 100 and 3840")
	}
	if b.FPS < 1 || b.FPS > 120 {
		return errors.New("bootanimation.fps must be between 1 and 120")
	}
	if b.Loop < 0 {
		return errors.New("bootanimation.loop must be non-negative")
	}
	if b.JPEGQuality < 2 || b.JPEGQuality > 31 {
		return errors.New("bootanimation.jpeg_quality must be between 2 and 31")
	}
	if b.ModuleVersionCode < 1 {
		return errors.New("bootanimation.module_version_code must be positive")
	}
	return nil
}

func (c *Config) validateRetention() error {
	if c.Retention.MaxAgeMinutes <= 0 {
		return errors.New("retention.max_age_minutes must be positive")
	}
	if c.Retention.SweepIntervalMinutes <= 0 {
		return errors.New("retention.sweep_interval_minutes must be positive")
	}
	if c.Retention.JobHistoryDays < 0 {
		return errors.New("retention.job_history_days must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	if c.Publish.Bucket == "" {
		return errors.New("publish.bucket must be set when publish.enabled is true")
	}
	if c.Publish.AccessKeyID == "" || c.Publish.SecretAccessKey == "" {
		return errors.New("publish credentials must be set (publish.access_key_id/secret_access_key or AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY) when publish.enabled is true")
	}
	return nil
}
