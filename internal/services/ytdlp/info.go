package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"mediakit/internal/logging"
	"mediakit/internal/services"
	"mediakit/internal/toolexec"
)

const maxDescriptionRunes = 300

// Format is one distinct downloadable rendition.
type Format struct {
	FormatID   string `json:"format_id"`
	Ext        string `json:"ext"`
	Quality    string `json:"quality"`
	Filesize   int64  `json:"filesize"`
	Resolution string `json:"resolution"`
	HasAudio   bool   `json:"has_audio"`
	HasVideo   bool   `json:"has_video"`
}

// Info is the preview shown before a download.
type Info struct {
	Title        string   `json:"title"`
	Thumbnail    string   `json:"thumbnail"`
	Duration     float64  `json:"duration"`
	DurationText string   `json:"duration_text"`
	Uploader     string   `json:"uploader"`
	Platform     string   `json:"platform"`
	Formats      []Format `json:"formats"`
	Description  string   `json:"description"`
	IsPhoto      bool     `json:"is_photo"`
}

type rawFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	FormatNote     string  `json:"format_note"`
	Filesize       float64 `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
	Resolution     string  `json:"resolution"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	ACodec         string  `json:"acodec"`
	VCodec         string  `json:"vcodec"`
}

type rawThumbnail struct {
	URL string `json:"url"`
}

type rawInfo struct {
	Type        string          `json:"_type"`
	Title       string          `json:"title"`
	Thumbnail   string          `json:"thumbnail"`
	Thumbnails  []rawThumbnail  `json:"thumbnails"`
	Duration    float64         `json:"duration"`
	Uploader    string          `json:"uploader"`
	Channel     string          `json:"channel"`
	Description string          `json:"description"`
	Entries     json.RawMessage `json:"entries"`
	Formats     []rawFormat     `json:"formats"`
}

// Info fetches metadata for rawURL without downloading anything.
func (c *Client) Info(ctx context.Context, rawURL string) (Info, error) {
	parsed, err := ValidateURL(rawURL)
	if err != nil {
		return Info{}, err
	}
	target := parsed.String()
	res, err := c.runner.Run(ctx, toolexec.Spec{
		Tool:          "yt-dlp",
		Binary:        c.cfg.Binary,
		Args:          InfoArgs(target),
		Timeout:       c.cfg.InfoTimeout,
		CaptureStdout: true,
	})
	if err != nil {
		return Info{}, services.Wrap(services.ErrExternalTool, "info", "yt-dlp", "metadata lookup failed", err)
	}
	info, err := ParseInfo(res.Stdout, target)
	if err != nil {
		return Info{}, services.Wrap(services.ErrExternalTool, "info", "parse", "could not parse video info", err)
	}
	logging.WithContext(ctx, c.logger).Info("video info fetched",
		logging.String(logging.FieldEventType, "info_fetched"),
		logging.String("platform", info.Platform),
		logging.String("title", info.Title),
		logging.Int("formats", len(info.Formats)),
	)
	return info, nil
}

// InfoArgs builds the metadata argument vector.
func InfoArgs(target string) []string {
	return []string{"--dump-json", "--no-download", "--no-warnings", "--", target}
}

// ParseInfo decodes the first JSON document yt-dlp printed. Playlists print
// one document per line; anything after the first value is ignored.
func ParseInfo(stdout []byte, target string) (Info, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return Info{}, fmt.Errorf("yt-dlp printed no metadata")
	}
	var raw rawInfo
	if err := json.NewDecoder(bytes.NewReader(trimmed)).Decode(&raw); err != nil {
		return Info{}, err
	}

	info := Info{
		Title:       orDefault(raw.Title, "Untitled"),
		Thumbnail:   raw.Thumbnail,
		Duration:    raw.Duration,
		Uploader:    orDefault(raw.Uploader, orDefault(raw.Channel, "Unknown")),
		Platform:    DetectPlatform(target),
		Description: truncateRunes(raw.Description, maxDescriptionRunes),
		IsPhoto:     raw.Type == "playlist" || (len(raw.Entries) > 0 && string(raw.Entries) != "null"),
		Formats:     []Format{},
	}
	info.DurationText = FormatDuration(info.Duration)
	if info.Thumbnail == "" && len(raw.Thumbnails) > 0 {
		info.Thumbnail = raw.Thumbnails[len(raw.Thumbnails)-1].URL
	}

	seen := make(map[string]struct{}, len(raw.Formats))
	for _, f := range raw.Formats {
		if f.Ext == "" || f.FormatNote == "" {
			continue
		}
		key := f.Ext + "-" + f.FormatNote
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		size := f.Filesize
		if size == 0 {
			size = f.FilesizeApprox
		}
		info.Formats = append(info.Formats, Format{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Quality:    f.FormatNote,
			Filesize:   int64(size),
			Resolution: resolution(f),
			HasAudio:   f.ACodec != "none",
			HasVideo:   f.VCodec != "none",
		})
	}
	return info, nil
}

// FormatDuration renders whole seconds as m:ss.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func resolution(f rawFormat) string {
	if f.Resolution != "" {
		return f.Resolution
	}
	w, h := "?", "?"
	if f.Width > 0 {
		w = fmt.Sprint(f.Width)
	}
	if f.Height > 0 {
		h = fmt.Sprint(f.Height)
	}
	return w + "x" + h
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
