package bootanim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"mediakit/internal/services"
	"mediakit/internal/toolexec"
)

// framePattern yields 00001.jpg, 00002.jpg, ... inside the frames directory.
const framePattern = "%05d.jpg"

func frameArgs(source, framesDir string, p Params, quality int) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black",
		p.Width, p.Height, p.Width, p.Height,
	)
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", source,
		"-vf", filter,
		"-r", strconv.Itoa(p.FPS),
		"-q:v", strconv.Itoa(quality),
		filepath.Join(framesDir, framePattern),
	}
}

func (b *Builder) extractFrames(ctx context.Context, j *job) error {
	spec := toolexec.Spec{
		Tool:    "ffmpeg",
		Binary:  b.ffmpegBinary,
		Args:    frameArgs(j.source, j.ws.FramesDir(), j.params, b.jpegQuality),
		Timeout: b.frameTimeout,
	}
	if _, err := b.runner.Run(ctx, spec); err != nil {
		return services.Wrap(services.ErrExternalTool, stageFrames, "ffmpeg", "frame extraction failed", err)
	}
	frames, err := listFrames(j.ws.FramesDir())
	if err != nil {
		return services.Wrap(services.ErrIO, stageFrames, "list", "read frames directory", err)
	}
	if len(frames) == 0 {
		return services.Wrap(services.ErrEmptyResult, stageFrames, "", "no frames could be extracted from the video", nil)
	}
	j.frames = frames
	b.metrics.AddFrames(len(frames))
	return nil
}

// listFrames returns the .jpg file names in dir in lexicographic order.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	frames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".jpg") {
			frames = append(frames, entry.Name())
		}
	}
	sort.Strings(frames)
	return frames, nil
}
