package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ntoujavaproject/store-strategist/internal/monitoring"
	"github.com/ntoujavaproject/store-strategist/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog health and recent runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("status"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		snap, err := monitoring.NewStatusCollector(st).Collect(ctx, limit)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, snap)
		}
		formatStatus(os.Stdout, snap)

		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}
		fmt.Fprintln(os.Stdout)
		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// formatStatus writes the catalog summary to w.
func formatStatus(out io.Writer, s *monitoring.StatusSnapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Restaurants:\t%d\n", s.Restaurants)
	_, _ = fmt.Fprintf(w, "Pending uploads:\t%d\n", s.PendingUploads)
	_, _ = fmt.Fprintf(w, "Runs:\t%d\n", s.RunsTotal)
	_, _ = fmt.Fprintf(w, "  Complete:\t%d\n", s.RunsComplete)
	_, _ = fmt.Fprintf(w, "  Failed:\t%d\n", s.RunsFailed)
	_, _ = fmt.Fprintf(w, "  Running:\t%d\n", s.RunsRunning)
	if s.RunsComplete+s.RunsFailed > 0 {
		_, _ = fmt.Fprintf(w, "Fail rate:\t%.1f%%\n", s.RunFailRate*100)
	}
	_ = w.Flush()
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tSTATUS\tCENTER\tRADIUS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t------\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()

		center := "-"
		radius := "-"
		if r.RadiusM > 0 || r.Lat != 0 || r.Lon != 0 {
			center = fmt.Sprintf("%.4f,%.4f", r.Lat, r.Lon)
			radius = fmt.Sprintf("%.0fm", r.RadiusM)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Kind,
			r.Status,
			center,
			radius,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	statusCmd.Flags().Int("limit", 20, "number of recent runs to summarize")
	statusCmd.Flags().Bool("json", false, "print the summary as JSON")
	rootCmd.AddCommand(statusCmd)
}
