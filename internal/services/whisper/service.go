package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mediakit/internal/language"
	"mediakit/internal/logging"
	"mediakit/internal/services"
	"mediakit/internal/toolexec"
)

const (
	// DefaultModel is the whisper model used when none is configured.
	DefaultModel   = "base"
	DefaultPython  = "python3"
	OutputFormat   = "json"
	unknownLang    = "unknown"
	defaultTimeout = 10 * time.Minute
)

// Config captures runtime settings for transcription.
type Config struct {
	Python    string
	Model     string
	OutputDir string
	Timeout   time.Duration
}

// Segment is one time-stamped span of the transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the normalized transcription result.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Service transcribes audio files.
type Service struct {
	cfg    Config
	runner toolexec.Runner
	logger *slog.Logger
}

// NewService creates a transcription service.
func NewService(cfg Config, runner toolexec.Runner, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.Python) == "" {
		cfg.Python = DefaultPython
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Service{cfg: cfg, runner: runner, logger: logging.NewComponentLogger(logger, "whisper")}
}

// Model returns the configured model name for logging.
func (s *Service) Model() string { return s.cfg.Model }

// Transcribe runs whisper on audioPath. lang is a language hint; empty and
// "auto" let whisper detect the language.
func (s *Service) Transcribe(ctx context.Context, audioPath, lang string) (Transcript, error) {
	if strings.TrimSpace(audioPath) == "" {
		return Transcript{}, services.Validationf("an audio file is required")
	}
	info, err := os.Stat(audioPath)
	if err != nil || !info.Mode().IsRegular() {
		return Transcript{}, services.Validationf("audio file %s does not exist", filepath.Base(audioPath))
	}
	resolved, err := language.Resolve(lang)
	if err != nil {
		return Transcript{}, services.Validationf("language %q is not supported", strings.TrimSpace(lang))
	}
	outputDir := s.cfg.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Transcript{}, services.Wrap(services.ErrIO, "transcribe", "prepare", "ensure transcript directory", err)
	}

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("transcription started",
		logging.String(logging.FieldEventType, "transcribe_start"),
		logging.String("model", s.cfg.Model),
		logging.String("language", resolved),
		logging.String("audio_path", audioPath),
	)

	start := time.Now()
	_, err = s.runner.Run(ctx, toolexec.Spec{
		Tool:    "whisper",
		Binary:  s.cfg.Python,
		Args:    BuildArgs(audioPath, s.cfg.Model, outputDir, resolved),
		Timeout: s.cfg.Timeout,
	})
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisper", "transcription failed", err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath, err := locateOutput(outputDir, base)
	if err != nil {
		return Transcript{}, err
	}
	transcript, err := LoadTranscript(jsonPath)
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "parse", "read transcript", err)
	}

	logger.Info("transcription completed",
		logging.String(logging.FieldEventType, "transcribe_complete"),
		logging.String("detected_language", transcript.Language),
		logging.Int("segments", len(transcript.Segments)),
		logging.Duration("duration", time.Since(start)),
	)
	return transcript, nil
}

// BuildArgs constructs the python argument vector. The language flag is
// omitted for automatic detection.
func BuildArgs(audioPath, model, outputDir, lang string) []string {
	args := []string{
		"-m", "whisper",
		audioPath,
		"--model", model,
		"--output_format", OutputFormat,
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if lang != "" && lang != language.Auto {
		args = append(args, "--language", lang)
	}
	return args
}

// locateOutput finds {base}.json in dir, falling back to the first JSON file
// whose name contains base.
func locateOutput(dir, base string) (string, error) {
	exact := filepath.Join(dir, base+".json")
	if info, err := os.Stat(exact); err == nil && info.Mode().IsRegular() {
		return exact, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", services.Wrap(services.ErrIO, "transcribe", "locate", "read transcript directory", err)
	}
	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasSuffix(name, ".json") && strings.Contains(name, base) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", services.Wrap(services.ErrEmptyResult, "transcribe", "", "transcript file was not produced", nil)
	}
	sort.Strings(matches)
	return filepath.Join(dir, matches[0]), nil
}

type payload struct {
	Text     *string `json:"text"`
	Language string  `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// LoadTranscript reads a whisper JSON file. The text falls back to the joined
// segment texts and the language to "unknown".
func LoadTranscript(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, err
	}
	var raw payload
	if err := json.Unmarshal(data, &raw); err != nil {
		return Transcript{}, fmt.Errorf("parse whisper json: %w", err)
	}
	out := Transcript{
		Language: strings.TrimSpace(raw.Language),
		Segments: make([]Segment, 0, len(raw.Segments)),
	}
	if out.Language == "" {
		out.Language = unknownLang
	}
	texts := make([]string, 0, len(raw.Segments))
	for _, seg := range raw.Segments {
		out.Segments = append(out.Segments, Segment{Start: seg.Start, End: seg.End, Text: strings.TrimSpace(seg.Text)})
		texts = append(texts, seg.Text)
	}
	if raw.Text != nil && strings.TrimSpace(*raw.Text) != "" {
		out.Text = strings.TrimSpace(*raw.Text)
	} else {
		out.Text = strings.TrimSpace(strings.Join(texts, " "))
	}
	return out, nil
}
