package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"mediakit/internal/bootanim"
	"mediakit/internal/config"
	"mediakit/internal/jobs"
	"mediakit/internal/logging"
	"mediakit/internal/metrics"
	"mediakit/internal/preflight"
	"mediakit/internal/publish"
	"mediakit/internal/services/whisper"
	"mediakit/internal/services/ytdlp"
	"mediakit/internal/web"
)

// MediaClient fetches metadata and media from remote URLs.
type MediaClient interface {
	Info(ctx context.Context, rawURL string) (ytdlp.Info, error)
	Download(ctx context.Context, req ytdlp.DownloadRequest) (ytdlp.Download, error)
}

// Transcriber converts an audio or video file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, lang string) (whisper.Transcript, error)
}

// AnimationBuilder produces boot animation packages.
type AnimationBuilder interface {
	Build(ctx context.Context, req bootanim.Request) (bootanim.Result, error)
	Defaults() bootanim.Params
}

// StatusFunc reports readiness for the status endpoint.
type StatusFunc func(ctx context.Context) preflight.Report

// Options wires the server to its collaborators. Media, Transcriber and
// Builder are required; the rest may be nil.
type Options struct {
	Config      *config.Config
	Logger      *slog.Logger
	Media       MediaClient
	Transcriber Transcriber
	Builder     AnimationBuilder
	Recorder    *jobs.Recorder
	Mirror      *publish.Mirror
	Metrics     *metrics.Registry
	Status      StatusFunc
}

// Server is the MediaKit HTTP API.
type Server struct {
	cfg         *config.Config
	logger      *slog.Logger
	media       MediaClient
	transcriber Transcriber
	builder     AnimationBuilder
	recorder    *jobs.Recorder
	mirror      *publish.Mirror
	metrics     *metrics.Registry
	status      StatusFunc
	startedAt   time.Time

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New constructs a Server and its route table.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("httpapi: config is required")
	}
	if opts.Media == nil || opts.Transcriber == nil || opts.Builder == nil {
		return nil, errors.New("httpapi: media, transcriber and builder are required")
	}
	s := &Server{
		cfg:         opts.Config,
		logger:      logging.NewComponentLogger(opts.Logger, "api-server"),
		media:       opts.Media,
		transcriber: opts.Transcriber,
		builder:     opts.Builder,
		recorder:    opts.Recorder,
		mirror:      opts.Mirror,
		metrics:     opts.Metrics,
		status:      opts.Status,
		startedAt:   time.Now(),
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	token := strings.TrimSpace(s.cfg.Server.APIToken)

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMiddleware(token, h))
	}
	api("POST /api/info", s.handleInfo)
	api("POST /api/download", s.handleDownload)
	api("POST /api/transcribe-url", s.handleTranscribeURL)
	api("POST /api/transcribe-file", s.handleTranscribeFile)
	api("POST /api/bootanimation", s.handleBootAnimation)
	api("GET /api/file/{name}", s.handleFile)
	api("GET /api/jobs", s.handleJobs)
	api("GET /api/status", s.handleStatus)
	api("GET /api/languages", s.handleLanguages)

	if s.cfg.Metrics.Enabled && s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.Handle("GET /", web.Handler())

	return requestContext(s.logger, mux)
}

// Handler exposes the full route table, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on the configured bind address and serves until ctx is
// cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Server.Bind)
	if bind == "" {
		return errors.New("httpapi: server.bind is empty")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: config.Seconds(s.cfg.Server.ReadHeaderTimeout),
		WriteTimeout:      config.Seconds(s.cfg.Server.WriteTimeout),
		IdleTimeout:       config.Seconds(s.cfg.Server.IdleTimeout),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.cfg.Server.APIToken != ""),
		logging.Bool("metrics", s.cfg.Metrics.Enabled && s.metrics != nil),
	)
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the listener.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	timeout := config.Seconds(s.cfg.Server.ShutdownTimeoutSeconds)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Warn("api server shutdown incomplete",
			logging.String(logging.FieldEventType, "api_shutdown_incomplete"),
			logging.Error(err),
		)
	}
}
