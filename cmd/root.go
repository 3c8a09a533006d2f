package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "strategist",
	Short: "Restaurant discovery and review collection",
	Long:  "Discovers restaurants inside a map area by grid search, collects their reviews from the maps web backend, and uploads them to Firestore.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("dry-run", false, "write to an in-memory sink instead of Firestore")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address during the command (overrides metrics.addr)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
