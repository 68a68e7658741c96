package publish

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"mediakit/internal/config"
	"mediakit/internal/logging"
	"mediakit/internal/metrics"
	"mediakit/internal/services"
)

// Uploader is the subset of manager.Uploader the mirror needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Config describes the target bucket.
type Config struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Timeout         time.Duration
}

// Mirror uploads artifacts to S3.
type Mirror struct {
	cfg      Config
	uploader Uploader
	logger   *slog.Logger
	metrics  *metrics.Registry
}

// FromConfig builds a mirror from the [publish] section, or returns nil when
// mirroring is disabled.
func FromConfig(cfg *config.Config, logger *slog.Logger, m *metrics.Registry) *Mirror {
	if cfg == nil || !cfg.Publish.Enabled {
		return nil
	}
	p := cfg.Publish
	return New(Config{
		Bucket:          p.Bucket,
		Region:          p.Region,
		Prefix:          p.Prefix,
		Endpoint:        p.Endpoint,
		AccessKeyID:     p.AccessKeyID,
		SecretAccessKey: p.SecretAccessKey,
		UsePathStyle:    p.UsePathStyle,
		Timeout:         config.Seconds(p.TimeoutSeconds),
	}, logger, m)
}

// New creates a mirror backed by an S3 client using static credentials.
func New(cfg Config, logger *slog.Logger, m *metrics.Registry) *Mirror {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	}
	return NewWithUploader(cfg, manager.NewUploader(s3.New(opts)), logger, m)
}

// NewWithUploader creates a mirror around an existing uploader.
func NewWithUploader(cfg Config, uploader Uploader, logger *slog.Logger, m *metrics.Registry) *Mirror {
	return &Mirror{
		cfg:      cfg,
		uploader: uploader,
		logger:   logging.NewComponentLogger(logger, "publish"),
		metrics:  m,
	}
}

// Enabled reports whether uploads will be attempted.
func (m *Mirror) Enabled() bool { return m != nil && m.uploader != nil }

// Key returns the object key for a file name.
func (m *Mirror) Key(name string) string {
	prefix := strings.Trim(m.cfg.Prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Publish uploads the file at localPath and returns its s3:// location.
func (m *Mirror) Publish(ctx context.Context, localPath string) (string, error) {
	if !m.Enabled() {
		return "", nil
	}
	name := filepath.Base(localPath)
	key := m.Key(name)

	file, err := os.Open(localPath)
	if err != nil {
		return "", services.Wrap(services.ErrIO, "publish", "open", "open artifact", err)
	}
	defer file.Close()

	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if ct := contentType(name); ct != "" {
		input.ContentType = aws.String(ct)
	}

	start := time.Now()
	_, err = m.uploader.Upload(ctx, input)
	m.metrics.ObservePublish(err)
	location := fmt.Sprintf("s3://%s/%s", m.cfg.Bucket, key)
	logger := logging.WithContext(ctx, m.logger)
	if err != nil {
		logging.WarnWithContext(logger, "artifact mirror upload failed", "publish_failed",
			logging.String("object", location),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check bucket name, credentials and endpoint"),
			logging.String(logging.FieldImpact, "artifact is only available locally"),
		)
		return "", services.Wrap(services.ErrExternalTool, "publish", "s3", "upload "+name, err)
	}
	logger.Info("artifact mirrored",
		logging.String(logging.FieldEventType, "publish_complete"),
		logging.String("object", location),
		logging.Duration("duration", time.Since(start)),
	)
	return location, nil
}

var knownTypes = map[string]string{
	".zip":  "application/zip",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".webm": "video/webm",
	".json": "application/json",
}

func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := knownTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}
