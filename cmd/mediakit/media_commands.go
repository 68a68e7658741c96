package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediakit/internal/daemon"
	"mediakit/internal/jobs"
	"mediakit/internal/language"
	"mediakit/internal/services"
	"mediakit/internal/services/whisper"
	"mediakit/internal/services/ytdlp"
)

type downloadOutput struct {
	JobID    string `json:"job_id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Mirror   string `json:"mirror,omitempty"`
}

type transcribeOutput struct {
	whisper.Transcript
	JobID  string `json:"job_id"`
	Source string `json:"source"`
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info URL",
		Short: "Show title, duration and formats for a media URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(func(c *daemon.Components) error {
				info, err := c.Media.Info(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, info)
				}
				printInfo(cmd.OutOrStdout(), info, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
}

func printInfo(out io.Writer, info ytdlp.Info, colorize bool) {
	fmt.Fprintf(out, "Title:    %s\n", info.Title)
	fmt.Fprintf(out, "Uploader: %s\n", info.Uploader)
	fmt.Fprintf(out, "Platform: %s\n", info.Platform)
	fmt.Fprintf(out, "Duration: %s\n", info.DurationText)
	if info.IsPhoto {
		fmt.Fprintln(out, "Type:     photo post")
	}
	if len(info.Formats) == 0 {
		fmt.Fprintln(out, "No downloadable formats reported")
		return
	}
	rows := make([][]string, 0, len(info.Formats))
	for _, f := range info.Formats {
		size := "-"
		if f.Filesize > 0 {
			size = humanize.IBytes(uint64(f.Filesize))
		}
		rows = append(rows, []string{f.FormatID, f.Ext, f.Quality, f.Resolution, size, yesNo(f.HasAudio), yesNo(f.HasVideo)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Ext", "Quality", "Resolution", "Size", "Audio", "Video"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		colorize,
	))
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var format string
	var quality string

	cmd := &cobra.Command{
		Use:   "download URL",
		Short: "Download media into the downloads directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			if _, err := ytdlp.ValidateURL(target); err != nil {
				return err
			}
			if _, _, err := ytdlp.NormalizeOptions(format, quality); err != nil {
				return err
			}
			return ctx.withComponents(func(c *daemon.Components) error {
				j := beginJob(cmd.Context(), c, jobs.KindDownload, target)
				dl, err := c.Media.Download(j.ctx, ytdlp.DownloadRequest{URL: target, Format: format, Quality: quality})
				if err != nil {
					j.finish("", "", err)
					return err
				}
				location, detail := j.mirror(dl.Path)
				j.finish(dl.Filename, detail, nil)

				result := downloadOutput{JobID: j.id, Filename: dl.Filename, Path: dl.Path, Size: dl.Size, Mirror: location}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Downloaded %s (%s)\n", dl.Path, humanize.IBytes(uint64(dl.Size)))
				if location != "" {
					fmt.Fprintf(out, "Mirrored to %s\n", location)
				} else if detail != "" {
					fmt.Fprintln(out, detail)
				}
				fmt.Fprintf(out, "Job %s\n", j.id)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", ytdlp.FormatMP4, "Output format (mp4 or mp3)")
	cmd.Flags().StringVarP(&quality, "quality", "q", ytdlp.QualityBest, "Quality (best, 1080, 720, 480, 360 or bestaudio)")
	return cmd
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var segments bool

	cmd := &cobra.Command{
		Use:   "transcribe FILE|URL",
		Short: "Transcribe a local media file or the audio of a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			resolved, err := language.Resolve(lang)
			if err != nil {
				return fmt.Errorf("%w: %w", services.ErrValidation, err)
			}
			local, err := localSource(source)
			if err != nil {
				return err
			}
			if local == "" {
				if _, err := ytdlp.ValidateURL(source); err != nil {
					return err
				}
			}

			return ctx.withComponents(func(c *daemon.Components) error {
				j := beginJob(cmd.Context(), c, jobs.KindTranscribe, source)
				audio := local
				if audio == "" {
					dl, err := c.Media.Download(j.ctx, ytdlp.DownloadRequest{
						URL:     source,
						Format:  ytdlp.FormatMP3,
						Quality: ytdlp.QualityBestAudio,
					})
					if err != nil {
						j.finish("", "", err)
						return err
					}
					audio = dl.Path
				}
				transcript, err := c.Transcriber.Transcribe(j.ctx, audio, resolved)
				if err != nil {
					j.finish("", "", err)
					return err
				}
				j.finish("", "language "+transcript.Language, nil)

				if ctx.jsonOutput() {
					return writeJSON(cmd, transcribeOutput{Transcript: transcript, JobID: j.id, Source: source})
				}
				printTranscript(cmd.OutOrStdout(), transcript, segments, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", language.Auto, "Spoken language code, or auto to detect")
	cmd.Flags().BoolVar(&segments, "segments", false, "Print timed segments instead of plain text")
	return cmd
}

// localSource returns the absolute path when source names an existing
// regular file and "" when it should be treated as a URL.
func localSource(source string) (string, error) {
	if strings.Contains(source, "://") {
		return "", nil
	}
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Validationf("%s is neither an existing file nor a URL", source)
		}
		return "", fmt.Errorf("inspect %s: %w", source, err)
	}
	if !info.Mode().IsRegular() {
		return "", services.Validationf("%s is not a regular file", source)
	}
	if info.Size() == 0 {
		return "", services.Validationf("%s is empty", source)
	}
	return filepath.Abs(source)
}

func printTranscript(out io.Writer, t whisper.Transcript, segments, colorize bool) {
	if !segments {
		fmt.Fprintln(out, t.Text)
		fmt.Fprintf(out, "\nLanguage: %s\n", t.Language)
		return
	}
	rows := make([][]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		rows = append(rows, []string{formatOffset(s.Start), formatOffset(s.End), s.Text})
	}
	fmt.Fprintln(out, renderTable([]string{"Start", "End", "Text"}, rows,
		[]columnAlignment{alignRight, alignRight, alignLeft}, colorize))
	fmt.Fprintf(out, "Language: %s\n", t.Language)
}

func formatOffset(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 2, 64) + "s"
}
