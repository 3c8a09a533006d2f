package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ntoujavaproject/store-strategist/internal/collector"
	"github.com/ntoujavaproject/store-strategist/internal/sink"
)

var featuredCmd = &cobra.Command{
	Use:   "featured",
	Short: "Print the featured reviews of one restaurant as JSON",
	Long:  "Reads the first highest-rated review pages of a restaurant and prints the reviews with a comment and either four or more stars or a photo. With --top N the N best-scoring reviews and the most helpful reviewers are added.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		target, err := targetFromFlags(cmd)
		if err != nil {
			return err
		}
		opts, err := collector.OptionsFromConfig(cfg)
		if err != nil {
			return err
		}

		// Featured output never touches the sink or catalog.
		c := collector.New(opts, initClient(), sink.NewMemory(), nil, startMetrics(ctx, cmd))
		top, _ := cmd.Flags().GetInt("top")
		set, err := c.Featured(ctx, target, top)
		if err != nil {
			return err
		}

		out := os.Stdout
		if path, _ := cmd.Flags().GetString("out"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return writeJSON(out, set)
	},
}

func init() {
	addTargetFlags(featuredCmd)
	featuredCmd.Flags().String("out", "", "write JSON to this file instead of stdout")
	featuredCmd.Flags().Int("top", 0, "also rank the N best reviews by reviewer authority, quality, recency and rating")
	rootCmd.AddCommand(featuredCmd)
}
