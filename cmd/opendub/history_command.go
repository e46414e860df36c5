package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"opendub/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var abandonAfter time.Duration
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded dubbing runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if abandonAfter > 0 {
				n, err := store.MarkAbandoned(cmd.Context(), abandonAfter)
				if err != nil {
					return err
				}
				if n > 0 && !asJSON {
					fmt.Fprintf(out, "Marked %d stale runs as failed\n", n)
				}
			}

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					string(run.Mode),
					colorStatus(out, string(run.Status)),
					run.TargetLanguage,
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					formatRunDuration(run),
					strconv.Itoa(run.Utterances),
					strconv.Itoa(run.Modified),
					strconv.Itoa(run.ExitCode),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Run", "Mode", "Status", "Target", "Started", "Duration", "Utterances", "Dubbed", "Exit"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().DurationVar(&abandonAfter, "abandon-after", 0, "Mark runs still running after this long as failed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRunDuration(run history.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.Duration().Round(time.Second).String()
}
