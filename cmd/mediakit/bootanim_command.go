package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediakit/internal/bootanim"
	"mediakit/internal/daemon"
	"mediakit/internal/jobs"
)

type bootAnimOutput struct {
	JobID          string  `json:"job_id"`
	Filename       string  `json:"filename"`
	Path           string  `json:"path"`
	Size           int64   `json:"size"`
	Frames         int     `json:"frames"`
	Resolution     string  `json:"resolution"`
	FPS            int     `json:"fps"`
	Loop           int     `json:"loop"`
	Name           string  `json:"name"`
	SourceDuration float64 `json:"source_duration_seconds,omitempty"`
	Elapsed        string  `json:"elapsed"`
	Mirror         string  `json:"mirror,omitempty"`
}

func newBootAnimCommand(ctx *commandContext) *cobra.Command {
	var params bootanim.Params

	cmd := &cobra.Command{
		Use:   "bootanim FILE",
		Short: "Build a flashable boot animation module from a video",
		Long: "Extract frames from the video, scale them to the target resolution and " +
			"package them with desc.txt into a Magisk module zip in the downloads directory. " +
			"Zero-valued flags fall back to the [bootanimation] defaults.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			return ctx.withComponents(func(c *daemon.Components) error {
				j := beginJob(cmd.Context(), c, jobs.KindBootAnimation, filepath.Base(source))
				result, err := c.Builder.Build(j.ctx, bootanim.Request{
					JobID:  j.id,
					Source: source,
					Params: params,
				})
				if err != nil {
					j.finish("", "", err)
					return err
				}
				detail := fmt.Sprintf("%s@%dfps, %d frames", result.Params.Resolution(), result.Params.FPS, result.Frames)
				location, mirrorDetail := j.mirror(result.Path)
				if mirrorDetail != "" {
					detail += "; " + mirrorDetail
				}
				j.finish(result.Filename, detail, nil)

				if ctx.jsonOutput() {
					return writeJSON(cmd, bootAnimOutput{
						JobID:          result.JobID,
						Filename:       result.Filename,
						Path:           result.Path,
						Size:           result.Size,
						Frames:         result.Frames,
						Resolution:     result.Params.Resolution(),
						FPS:            result.Params.FPS,
						Loop:           result.Params.Loop,
						Name:           result.Params.Name,
						SourceDuration: result.SourceDuration.Seconds(),
						Elapsed:        result.Elapsed.Round(time.Millisecond).String(),
						Mirror:         location,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Built %s\n", result)
				fmt.Fprintf(out, "Package: %s (%s)\n", result.Path, humanize.IBytes(uint64(result.Size)))
				if result.SourceDuration > 0 {
					fmt.Fprintf(out, "Source: %s\n", result.SourceDuration.Round(time.Millisecond))
				}
				if location != "" {
					fmt.Fprintf(out, "Mirrored to %s\n", location)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&params.Width, "width", 0, "Frame width in pixels")
	cmd.Flags().IntVar(&params.Height, "height", 0, "Frame height in pixels")
	cmd.Flags().IntVar(&params.FPS, "fps", 0, "Frames per second")
	cmd.Flags().IntVar(&params.Loop, "loop", 0, "Play count; 0 loops until boot completes")
	cmd.Flags().StringVar(&params.Name, "name", "", "Animation name written to module.prop")
	return cmd
}
