package bootanim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mediakit/internal/config"
	"mediakit/internal/fileutil"
	"mediakit/internal/logging"
	"mediakit/internal/media/ffprobe"
	"mediakit/internal/metrics"
	"mediakit/internal/services"
	"mediakit/internal/toolexec"
	"mediakit/internal/workspace"
)

const (
	stageProbe      = "probe"
	stageFrames     = "frames"
	stageDescriptor = "descriptor"
	stageAnimation  = "animation"
	stagePackage    = "package"

	// PackageSuffix is appended to the job ID to name the published package.
	PackageSuffix = "-bootanimation-module.zip"
)

// Request describes one build.
type Request struct {
	// JobID identifies the build; a fresh UUID is generated when empty.
	JobID  string
	Source string
	Params Params
}

// Result describes a published package. SourceDuration is the probed length
// of the input and stays zero when the source was not probed.
type Result struct {
	JobID          string
	Filename       string
	Path           string
	Size           int64
	Frames         int
	TemplateFiles  int
	Params         Params
	SourceDuration time.Duration
	Elapsed        time.Duration
}

// Options wires a Builder.
type Options struct {
	Runner         toolexec.Runner
	Archiver       Archiver
	Workspaces     *workspace.Manager
	FFmpegBinary   string
	FFprobeBinary  string
	TemplateDir    string
	OutputDir      string
	FrameTimeout   time.Duration
	ArchiveTimeout time.Duration
	JPEGQuality    int
	Identity       ModuleIdentity
	Defaults       Params
	Logger         *slog.Logger
	Metrics        *metrics.Registry
}

// OptionsFromConfig maps configuration onto builder options.
func OptionsFromConfig(cfg *config.Config) Options {
	b := cfg.BootAnimation
	return Options{
		FFmpegBinary:   cfg.Tools.FFmpeg,
		FFprobeBinary:  cfg.Tools.FFprobe,
		TemplateDir:    cfg.Paths.TemplateDir,
		OutputDir:      cfg.Paths.DownloadsDir,
		FrameTimeout:   config.Seconds(cfg.Timeouts.FrameExtract),
		ArchiveTimeout: config.Seconds(cfg.Timeouts.Archive),
		JPEGQuality:    b.JPEGQuality,
		Identity: ModuleIdentity{
			ID:          b.ModuleID,
			Version:     b.ModuleVersion,
			VersionCode: b.ModuleVersionCode,
			Author:      b.ModuleAuthor,
		},
		Defaults: Params{Width: b.Width, Height: b.Height, FPS: b.FPS, Loop: b.Loop, Name: b.Name},
	}
}

// Builder turns a video into an installable boot animation package.
type Builder struct {
	runner          toolexec.Runner
	archiver        Archiver
	workspaces      *workspace.Manager
	ffmpegBinary    string
	ffprobeBinary   string
	templateDir     string
	outputDir       string
	frameTimeout    time.Duration
	archiveTimeout  time.Duration
	jpegQuality     int
	identity        ModuleIdentity
	defaults        Params
	logger          *slog.Logger
	metrics         *metrics.Registry
	writeDescriptor func(path string, p Params) error
}

// NewBuilder constructs a Builder, filling unset options with defaults.
func NewBuilder(opts Options) *Builder {
	b := &Builder{
		runner:          opts.Runner,
		archiver:        opts.Archiver,
		workspaces:      opts.Workspaces,
		ffmpegBinary:    opts.FFmpegBinary,
		ffprobeBinary:   opts.FFprobeBinary,
		templateDir:     opts.TemplateDir,
		outputDir:       opts.OutputDir,
		frameTimeout:    opts.FrameTimeout,
		archiveTimeout:  opts.ArchiveTimeout,
		jpegQuality:     opts.JPEGQuality,
		identity:        opts.Identity,
		defaults:        opts.Defaults,
		logger:          logging.NewComponentLogger(opts.Logger, "bootanim"),
		metrics:         opts.Metrics,
		writeDescriptor: writeDescriptorFile,
	}
	if b.archiver == nil {
		b.archiver = ZipArchiver{}
	}
	if b.ffmpegBinary == "" {
		b.ffmpegBinary = "ffmpeg"
	}
	if b.jpegQuality <= 0 {
		b.jpegQuality = 4
	}
	if b.identity.ID == "" {
		b.identity = ModuleIdentity{ID: "CustomBootanimation", Version: "v1.0", VersionCode: 1, Author: "MediaKit"}
	}
	if b.defaults.Width == 0 {
		b.defaults = Params{Width: 1080, Height: 1920, FPS: 24, Name: fallbackName}
	}
	return b
}

// Defaults returns the parameters applied to zero-valued request fields.
func (b *Builder) Defaults() Params { return b.defaults }

type job struct {
	id             string
	source         string
	params         Params
	ws             workspace.Workspace
	sourceDuration time.Duration
	frames         []string
	templateFiles  int
}

type stage struct {
	name string
	run  func(context.Context, *job) error
}

func (b *Builder) stages() []stage {
	stages := make([]stage, 0, 5)
	if b.ffprobeBinary != "" {
		stages = append(stages, stage{stageProbe, b.probeSource})
	}
	return append(stages,
		stage{stageFrames, b.extractFrames},
		stage{stageDescriptor, b.generateDescriptor},
		stage{stageAnimation, b.packageAnimation},
		stage{stagePackage, b.assemblePackage},
	)
}

// probeSource rejects inputs without a video stream. A failing ffprobe only
// costs the duration hint, so the build continues and lets ffmpeg decide.
func (b *Builder) probeSource(ctx context.Context, j *job) error {
	result, err := ffprobe.Inspect(ctx, b.runner, b.ffprobeBinary, j.source, 0)
	if err != nil {
		logging.WithContext(ctx, b.logger).Warn("source probe failed; continuing without it",
			logging.String(logging.FieldEventType, "probe_failed"),
			logging.Error(err),
		)
		return nil
	}
	if result.VideoStreamCount() == 0 {
		return services.Validationf("%s has no video stream", filepath.Base(j.source))
	}
	if seconds := result.DurationSeconds(); seconds > 0 {
		j.sourceDuration = time.Duration(seconds * float64(time.Second))
	}
	return nil
}

// Build runs frame extraction, descriptor generation, animation packaging and
// package assembly in order inside a fresh workspace, then moves the package
// into the output directory. The workspace is removed whatever the outcome.
func (b *Builder) Build(ctx context.Context, req Request) (Result, error) {
	if b.runner == nil || b.workspaces == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "bootanimation", "build", "builder is not fully configured", nil)
	}
	if err := checkSource(req.Source); err != nil {
		return Result{}, err
	}
	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.NewString()
	}
	j := &job{id: jobID, source: req.Source, params: req.Params.Normalize(b.defaults)}
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, b.logger)

	start := time.Now()
	var result Result
	err := b.workspaces.With(ctx, jobID, func(ctx context.Context, ws workspace.Workspace) error {
		j.ws = ws
		for _, st := range b.stages() {
			if err := b.runStage(ctx, st, j); err != nil {
				return err
			}
		}
		var err error
		result, err = b.publish(j)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	result.Elapsed = time.Since(start)
	logger.Info("boot animation package built",
		logging.String(logging.FieldEventType, "bootanimation_built"),
		logging.String("filename", result.Filename),
		logging.Int64("size_bytes", result.Size),
		logging.Int("frames", result.Frames),
		logging.String("resolution", result.Params.Resolution()),
		logging.Int("fps", result.Params.FPS),
		logging.Duration("duration", result.Elapsed),
	)
	return result, nil
}

func (b *Builder) runStage(ctx context.Context, st stage, j *job) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, st.name, "", "job deadline exceeded", err)
		}
		return fmt.Errorf("%s: job cancelled: %w", st.name, err)
	}
	stageCtx := services.WithStage(ctx, st.name)
	logger := logging.WithContext(stageCtx, b.logger)
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	start := time.Now()
	err := st.run(stageCtx, j)
	elapsed := time.Since(start)
	b.metrics.ObserveStage(st.name, elapsed)
	if errors.Is(err, context.Canceled) {
		logger.Warn("stage cancelled",
			logging.String(logging.FieldEventType, "stage_cancelled"),
			logging.Duration("stage_duration", elapsed),
			logging.Error(err),
		)
		return err
	}
	if err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("stage_duration", elapsed),
			logging.Error(err),
		)
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", elapsed),
	)
	return nil
}

// publish moves the staged package into the output directory. The output
// directory only ever sees a complete file.
func (b *Builder) publish(j *job) (Result, error) {
	filename := j.id + PackageSuffix
	dest := filepath.Join(b.outputDir, filename)
	if err := fileutil.MoveFile(j.ws.PackagePath(), dest); err != nil {
		return Result{}, services.Wrap(services.ErrIO, stagePackage, "publish", "move package into output directory", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return Result{}, services.Wrap(services.ErrIO, stagePackage, "publish", "stat published package", err)
	}
	return Result{
		JobID:          j.id,
		Filename:       filename,
		Path:           dest,
		Size:           info.Size(),
		Frames:         len(j.frames),
		TemplateFiles:  j.templateFiles,
		Params:         j.params,
		SourceDuration: j.sourceDuration,
	}, nil
}

func checkSource(source string) error {
	if source == "" {
		return services.Validationf("a video file is required")
	}
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Validationf("video file %s does not exist", filepath.Base(source))
		}
		return services.Wrap(services.ErrIO, "bootanimation", "stat", "inspect source video", err)
	}
	if !info.Mode().IsRegular() {
		return services.Validationf("%s is not a regular file", filepath.Base(source))
	}
	if info.Size() == 0 {
		return services.Validationf("video file %s is empty", filepath.Base(source))
	}
	return nil
}

// String renders a short summary used by the CLI.
func (r Result) String() string {
	return fmt.Sprintf("%s (%d frames, %s @ %d fps)", r.Filename, r.Frames, r.Params.Resolution(), r.Params.FPS)
}
