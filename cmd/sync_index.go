package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/searchindex"
)

var syncIndexCmd = &cobra.Command{
	Use:   "sync-index",
	Short: "Push every sink restaurant to the search index",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := validateFor(cmd, "sync-index"); err != nil {
			return err
		}

		s, err := initSink(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck

		index, err := searchindex.NewAlgolia(searchindex.AlgoliaConfig{
			AppID:  cfg.SearchIndex.AppID,
			APIKey: cfg.SearchIndex.APIKey,
			Index:  cfg.SearchIndex.Index,
		})
		if err != nil {
			return err
		}

		res, err := searchindex.NewSyncer(s, index, cfg.SearchIndex.BatchSize).Sync(ctx)
		if res != nil {
			zap.L().Info("search index synced",
				zap.String("command", "sync-index"),
				zap.String("index", cfg.SearchIndex.Index),
				zap.Int("documents", res.Documents),
				zap.Int("batches", res.Batches),
			)
			if werr := writeJSON(os.Stdout, res); werr != nil {
				return werr
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(syncIndexCmd)
}
