package config

const (
	defaultConfigPath            = "~/.config/mediakit/config.toml"
	defaultDataDir               = "~/.local/share/mediakit"
	defaultBind                  = "127.0.0.1:3000"
	defaultMaxUploadMB           = 500
	defaultReadHeaderTimeout     = 10
	defaultWriteTimeout          = 960
	defaultIdleTimeout           = 60
	defaultShutdownTimeout       = 10
	defaultYTDLPBinary           = "yt-dlp"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultPythonBinary          = "python3"
	defaultWhisperModel          = "base"
	defaultInfoTimeout           = 30
	defaultDownloadTimeout       = 300
	defaultTranscribeTimeout     = 600
	defaultFrameExtractTimeout   = 300
	defaultArchiveTimeout        = 120
	defaultBootWidth             = 1080
	defaultBootHeight            = 1920
	defaultBootFPS               = 24
	defaultBootName              = "CustomBootAnimation"
	defaultJPEGQuality           = 4
	defaultModuleID              = "CustomBootanimation"
	defaultModuleVersion         = "v1.0"
	defaultModuleVersionCode     = 1
	defaultModuleAuthor          = "MediaKit"
	defaultMaxAgeMinutes         = 60
	defaultSweepIntervalMinutes  = 60
	defaultJobHistoryDays        = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultPublishRegion         = "us-east-1"
	defaultPublishTimeoutSeconds = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Server: Server{
			Bind:                   defaultBind,
			MaxUploadMB:            defaultMaxUploadMB,
			ReadHeaderTimeout:      defaultReadHeaderTimeout,
			WriteTimeout:           defaultWriteTimeout,
			IdleTimeout:            defaultIdleTimeout,
			ShutdownTimeoutSeconds: defaultShutdownTimeout,
		},
		Tools: Tools{
			YTDLP:        defaultYTDLPBinary,
			FFmpeg:       defaultFFmpegBinary,
			FFprobe:      defaultFFprobeBinary,
			Python:       defaultPythonBinary,
			WhisperModel: defaultWhisperModel,
		},
		Timeouts: Timeouts{
			Info:         defaultInfoTimeout,
			Download:     defaultDownloadTimeout,
			Transcribe:   defaultTranscribeTimeout,
			FrameExtract: defaultFrameExtractTimeout,
			Archive:      defaultArchiveTimeout,
		},
		BootAnimation: BootAnimation{
			Width:             defaultBootWidth,
			Height:            defaultBootHeight,
			FPS:               defaultBootFPS,
			Name:              defaultBootName,
			JPEGQuality:       defaultJPEGQuality,
			ModuleID:          defaultModuleID,
			ModuleVersion:     defaultModuleVersion,
			ModuleVersionCode: defaultModuleVersionCode,
			ModuleAuthor:      defaultModuleAuthor,
		},
		Retention: Retention{
			MaxAgeMinutes:        defaultMaxAgeMinutes,
			SweepIntervalMinutes: defaultSweepIntervalMinutes,
			JobHistoryDays:       defaultJobHistoryDays,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Publish: Publish{
			Region:         defaultPublishRegion,
			TimeoutSeconds: defaultPublishTimeoutSeconds,
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}
