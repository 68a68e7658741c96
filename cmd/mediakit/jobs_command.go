package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediakit/internal/daemon"
	"mediakit/internal/jobs"
	"mediakit/internal/services"
)

const defaultJobsLimit = 20

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var kinds []string
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent jobs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := jobsFilter(kinds, limit)
			if err != nil {
				return err
			}
			return ctx.withComponents(func(c *daemon.Components) error {
				records, err := c.Store.List(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("list jobs: %w", err)
				}
				if records == nil {
					records = []jobs.Record{}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"jobs": records})
				}
				printJobs(cmd.OutOrStdout(), records, time.Now(), shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "Only show these kinds (download, transcribe, bootanimation)")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultJobsLimit, "Maximum number of jobs to show; 0 uses the ledger default")
	return cmd
}

func jobsFilter(kinds []string, limit int) (jobs.Filter, error) {
	if limit < 0 {
		return jobs.Filter{}, services.Validationf("--limit must not be negative")
	}
	filter := jobs.Filter{Limit: limit}
	for _, raw := range kinds {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		kind, ok := jobs.ParseKind(raw)
		if !ok {
			return jobs.Filter{}, services.Validationf("unknown job kind %q", raw)
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	return filter, nil
}

func printJobs(out io.Writer, records []jobs.Record, now time.Time, colorize bool) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No jobs recorded")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.Duration().Round(time.Millisecond).String()
		}
		outcome := r.Artifact
		if r.Status == jobs.StatusFailed {
			outcome = r.ErrorMessage
		}
		rows = append(rows, []string{
			shortID(r.ID),
			string(r.Kind),
			string(r.Status),
			humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
			duration,
			truncate(r.Source, 40),
			truncate(outcome, 48),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Kind", "Status", "Started", "Took", "Source", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		colorize,
	))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
