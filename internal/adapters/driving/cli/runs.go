package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent sync runs",
	RunE:  runRuns,
}

var runsLimit int

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "number of runs to show (0 for all)")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := requireServices(ctx)
	if err != nil {
		return err
	}
	if svc.Runs == nil {
		return fmt.Errorf("run history is not available")
	}

	runs, err := svc.Runs.List(ctx, runsLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tWINDOW\tSTATUS\tACCEPTED\tREJECTED\tFAILURES\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s..%s\t%s\t%d\t%d\t%d\t%s\n",
			shortID(r.ID), r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.WindowStart, r.WindowEnd, r.Status,
			r.RowsAccepted, r.RowsRejected, r.Failures, r.Duration().Round(time.Second))
	}
	return w.Flush()
}

// shortID truncates a UUID to its first group.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
