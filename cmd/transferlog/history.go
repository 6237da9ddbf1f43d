package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dtatools/transferlog/internal/state"
)

func buildHistoryCommand() *cobra.Command {
	var (
		kind  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent logging operations",
		Long: `Shows the local operation history: what was logged, when, and where
the detail file went. The history is a convenience record on this
workstation; the authoritative record is the summary log itself.

Examples:
  transferlog history
  transferlog history --kind request --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := resolveHistoryDir()
			if dir == "" {
				return fmt.Errorf("operation history is disabled")
			}

			manager, err := state.NewManager(dir)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer manager.Close()

			var records []state.OperationRecord
			if kind != "" {
				records, err = manager.GetHistory(kind, limit)
			} else {
				records, err = manager.GetAllHistory(limit)
			}
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No recorded operations.")
				return nil
			}

			printHistory(records)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by operation kind (transfer, request)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records to show")

	return cmd
}

func printHistory(records []state.OperationRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tKIND\tWHAT\tFILES\tSIZE\tSTATUS\tDETAIL FILE")

	for _, r := range records {
		what := r.Purpose
		if r.Kind == "transfer" {
			what = fmt.Sprintf("%s %s -> %s", r.MediaID, r.Source, r.Destination)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			humanize.Time(r.Timestamp),
			r.Kind,
			what,
			r.FileCount,
			humanize.IBytes(uint64(r.TotalBytes)),
			r.Status,
			r.DetailFile,
		)
	}

	w.Flush()
}
