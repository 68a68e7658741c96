package ytdlp

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediakit/internal/logging"
	"mediakit/internal/toolexec"
)

// Config captures the binary, output directory and timeouts.
type Config struct {
	Binary          string
	DownloadsDir    string
	InfoTimeout     time.Duration
	DownloadTimeout time.Duration
}

// Client runs yt-dlp.
type Client struct {
	cfg    Config
	runner toolexec.Runner
	logger *slog.Logger
	newID  func() string
}

// Option configures the client.
type Option func(*Client)

// WithIDGenerator overrides the download identifier source (primarily for tests).
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New constructs a yt-dlp client.
func New(cfg Config, runner toolexec.Runner, logger *slog.Logger, opts ...Option) *Client {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "yt-dlp"
	}
	if cfg.InfoTimeout <= 0 {
		cfg.InfoTimeout = 30 * time.Second
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 5 * time.Minute
	}
	c := &Client{
		cfg:    cfg,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "ytdlp"),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DownloadsDir returns the directory downloads are written to.
func (c *Client) DownloadsDir() string { return c.cfg.DownloadsDir }
