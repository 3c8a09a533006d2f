package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ntoujavaproject/store-strategist/internal/collector"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Retry uploads for restaurants not yet in the sink",
	Long:  "Uploads restaurants whose upload failed earlier, read either from a snapshot file or from the catalog's pending list.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		snapshot, _ := cmd.Flags().GetString("snapshot")
		pending, _ := cmd.Flags().GetBool("pending")
		if (snapshot != "") == pending {
			return eris.New("exactly one of --snapshot or --pending is required")
		}
		if err := validateFor(cmd, "upload"); err != nil {
			return err
		}

		env, err := initCollector(ctx, cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		var report *collector.UploadReport
		if pending {
			limit, _ := cmd.Flags().GetInt("limit")
			report, err = env.Collector.UploadPending(ctx, limit)
		} else {
			report, err = env.Collector.UploadSnapshot(ctx, snapshot)
		}
		if report != nil {
			if werr := writeJSON(os.Stdout, report); werr != nil {
				return werr
			}
		}
		return err
	},
}

func init() {
	uploadCmd.Flags().String("snapshot", "", "snapshot file whose not-uploaded restaurants are retried")
	uploadCmd.Flags().Bool("pending", false, "retry the catalog's pending uploads")
	uploadCmd.Flags().Int("limit", 1000, "maximum pending restaurants to retry")
	rootCmd.AddCommand(uploadCmd)
}
