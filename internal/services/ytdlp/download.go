package ytdlp

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mediakit/internal/logging"
	"mediakit/internal/services"
	"mediakit/internal/toolexec"
)

const (
	FormatMP4 = "mp4"
	FormatMP3 = "mp3"

	QualityBest      = "best"
	QualityBestAudio = "bestaudio"
)

var videoSelectors = map[string]string{
	QualityBest: "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
	"1080":      "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080][ext=mp4]/best",
	"720":       "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[height<=720][ext=mp4]/best",
	"480":       "bestvideo[height<=480][ext=mp4]+bestaudio[ext=m4a]/best[height<=480][ext=mp4]/best",
	"360":       "bestvideo[height<=360][ext=mp4]+bestaudio[ext=m4a]/best[height<=360][ext=mp4]/best",
}

// DownloadRequest selects what to fetch.
type DownloadRequest struct {
	URL     string
	Format  string
	Quality string
}

// Download describes a file placed in the downloads directory.
type Download struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Path        string `json:"-"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

// NormalizeOptions applies defaults and checks the format and quality
// against the allowed sets. mp3 always uses the best audio stream.
func NormalizeOptions(format, quality string) (string, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	quality = strings.ToLower(strings.TrimSpace(quality))
	if format == "" {
		format = FormatMP4
	}
	if quality == "" {
		quality = QualityBest
	}
	switch format {
	case FormatMP3:
		return FormatMP3, QualityBestAudio, nil
	case FormatMP4:
	default:
		return "", "", services.Validationf("format %q is not supported (use mp4 or mp3)", format)
	}
	if _, ok := videoSelectors[quality]; !ok && quality != QualityBestAudio {
		return "", "", services.Validationf("quality %q is not supported", quality)
	}
	return format, quality, nil
}

// DownloadArgs builds the download argument vector.
func DownloadArgs(format, quality, outputTemplate, target string) []string {
	args := []string{"--no-warnings", "--no-playlist"}
	switch {
	case format == FormatMP3 || quality == QualityBestAudio:
		args = append(args, "-f", "bestaudio", "-x", "--audio-format", "mp3", "--audio-quality", "0")
	default:
		args = append(args, "-f", videoSelectors[quality], "--merge-output-format", "mp4")
	}
	return append(args, "-o", outputTemplate, "--", target)
}

// Download fetches the media into the downloads directory as {id}.{ext}.
func (c *Client) Download(ctx context.Context, req DownloadRequest) (Download, error) {
	parsed, err := ValidateURL(req.URL)
	if err != nil {
		return Download{}, err
	}
	format, quality, err := NormalizeOptions(req.Format, req.Quality)
	if err != nil {
		return Download{}, err
	}
	if err := os.MkdirAll(c.cfg.DownloadsDir, 0o755); err != nil {
		return Download{}, services.Wrap(services.ErrIO, "download", "prepare", "ensure downloads directory", err)
	}

	id := c.newID()
	template := filepath.Join(c.cfg.DownloadsDir, id+".%(ext)s")
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("download started",
		logging.String(logging.FieldEventType, "download_start"),
		logging.String("download_id", id),
		logging.String("format", format),
		logging.String("quality", quality),
		logging.String("platform", DetectPlatform(parsed.String())),
	)

	_, err = c.runner.Run(ctx, toolexec.Spec{
		Tool:    "yt-dlp",
		Binary:  c.cfg.Binary,
		Args:    DownloadArgs(format, quality, template, parsed.String()),
		Timeout: c.cfg.DownloadTimeout,
	})
	if err != nil {
		c.cleanup(id)
		return Download{}, services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "download failed", err)
	}

	name, err := findOutput(c.cfg.DownloadsDir, id)
	if err != nil {
		c.cleanup(id)
		return Download{}, err
	}
	path := filepath.Join(c.cfg.DownloadsDir, name)
	info, err := os.Stat(path)
	if err != nil {
		c.cleanup(id)
		return Download{}, services.Wrap(services.ErrIO, "download", "stat", "inspect downloaded file", err)
	}

	logger.Info("download completed",
		logging.String(logging.FieldEventType, "download_complete"),
		logging.String("filename", name),
		logging.Int64("size_bytes", info.Size()),
	)
	return Download{
		ID:          id,
		Filename:    name,
		Path:        path,
		Size:        info.Size(),
		DownloadURL: FileURL(name),
	}, nil
}

// FileURL is the API path that serves a file from the downloads directory.
func FileURL(name string) string {
	return "/api/file/" + url.PathEscape(name)
}

// findOutput returns the finished file yt-dlp wrote for id, ignoring partial
// and fragment files.
func findOutput(dir, id string) (string, error) {
	matches, err := prefixed(dir, id)
	if err != nil {
		return "", services.Wrap(services.ErrIO, "download", "locate", "read downloads directory", err)
	}
	var finished []string
	for _, name := range matches {
		if isPartial(name) {
			continue
		}
		finished = append(finished, name)
	}
	if len(finished) == 0 {
		return "", services.Wrap(services.ErrEmptyResult, "download", "", "downloaded file was not found", nil)
	}
	sort.Strings(finished)
	return finished[0], nil
}

func prefixed(dir, id string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasPrefix(entry.Name(), id+".") {
			out = append(out, entry.Name())
		}
	}
	return out, nil
}

func isPartial(name string) bool {
	for _, suffix := range []string{".part", ".ytdl", ".temp"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return strings.Contains(name, ".part-Frag")
}

func (c *Client) cleanup(id string) {
	names, err := prefixed(c.cfg.DownloadsDir, id)
	if err != nil {
		return
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(c.cfg.DownloadsDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("failed to remove partial download",
				logging.String(logging.FieldEventType, "download_cleanup_failed"),
				logging.String("filename", name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the file manually or wait for the retention sweep"),
				logging.String(logging.FieldImpact, "disk space is held until the next sweep"),
			)
		}
	}
}
