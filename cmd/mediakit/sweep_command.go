package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediakit/internal/daemon"
	"mediakit/internal/services"
	"mediakit/internal/sweep"
)

type sweepOutput struct {
	Removed []string `json:"removed"`
	Bytes   int64    `json:"reclaimed_bytes"`
	Errors  []string `json:"errors,omitempty"`
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var maxAge string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired artifacts and prune old job history once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withComponents(func(c *daemon.Components) error {
				age := c.Config.ArtifactMaxAge()
				if maxAge != "" {
					parsed, err := parseAge(maxAge)
					if err != nil {
						return err
					}
					age = parsed
				}
				sweeper := sweep.New(c.Config.SweepDirs(), age, c.Logger,
					sweep.WithMetrics(c.Metrics),
					sweep.WithPruner(c.Store, c.Config.JobHistoryRetention()),
				)
				result := sweeper.Sweep(cmd.Context())

				output := sweepOutput{Removed: result.Removed, Bytes: result.Bytes}
				if output.Removed == nil {
					output.Removed = []string{}
				}
				for _, e := range result.Errors {
					output.Errors = append(output.Errors, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				if ctx.jsonOutput() {
					if err := writeJSON(cmd, output); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Removed %d file(s), reclaimed %s\n", len(output.Removed), humanize.IBytes(uint64(output.Bytes)))
					for _, line := range output.Errors {
						fmt.Fprintf(out, "  failed: %s\n", line)
					}
				}
				if len(output.Errors) > 0 {
					return fmt.Errorf("sweep finished with %d error(s)", len(output.Errors))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&maxAge, "max-age", "", "Override the artifact age limit (e.g. 30m, 2h)")
	return cmd
}

func parseAge(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, services.Validationf("--max-age must be a positive duration such as 30m")
	}
	return d, nil
}
