package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"mediakit/internal/toolexec"
)

// DefaultTimeout bounds a single inspection.
const DefaultTimeout = 30 * time.Second

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Args builds the inspection argument vector for path.
func Args(path string) []string {
	return []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
}

// Inspect runs ffprobe through runner and decodes its JSON report. A zero
// timeout uses DefaultTimeout.
func Inspect(ctx context.Context, runner toolexec.Runner, binary, path string, timeout time.Duration) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	if runner == nil {
		return Result{}, errors.New("ffprobe inspect: no runner")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	res, err := runner.Run(ctx, toolexec.Spec{
		Tool:          "ffprobe",
		Binary:        binary,
		Args:          Args(path),
		Timeout:       timeout,
		CaptureStdout: true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return Parse(res.Stdout)
}

// Parse decodes an ffprobe JSON report.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStreamCount returns the number of video streams discovered. Cover art
// attached as a single-frame mjpeg/png stream still counts as video.
func (r Result) VideoStreamCount() int {
	return r.count("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.count("audio")
}

func (r Result) count(kind string) int {
	n := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			n++
		}
	}
	return n
}

// VideoDimensions returns the size of the first video stream, or zeros.
func (r Result) VideoDimensions() (int, int) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream.Width, stream.Height
		}
	}
	return 0, 0
}

// DurationSeconds returns the container duration in seconds, 0 when absent
// and NaN when ffprobe reported something unparsable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
