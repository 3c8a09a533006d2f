package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/collector"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Discover, collect reviews for and upload every new restaurant in an area",
	Long:  "Runs the full area pass: grid discovery, place lookup, review pagination and upload. The snapshot file is rewritten after each stage.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyAreaFlags(cmd)
		applyCollectFlags(cmd)
		if err := validateFor(cmd, "collect"); err != nil {
			return err
		}

		env, err := initCollector(ctx, cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		report, _, err := env.Collector.RunArea(ctx, collector.AreaFromConfig(cfg))
		if report != nil {
			if werr := writeJSON(os.Stdout, report); werr != nil {
				return werr
			}
		}
		return err
	},
}

var collectOneCmd = &cobra.Command{
	Use:   "collect-one",
	Short: "Collect and upload the reviews of a single restaurant",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		target, err := targetFromFlags(cmd)
		if err != nil {
			return err
		}
		applyCollectFlags(cmd)
		if err := validateFor(cmd, "upload"); err != nil {
			return err
		}

		env, err := initCollector(ctx, cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		r, err := env.Collector.CollectOne(ctx, target)
		if r != nil {
			zap.L().Info("collect-one finished",
				zap.String("command", "collect-one"),
				zap.String("id", r.ID),
				zap.String("name", r.Name),
				zap.Int("reviews", len(r.Reviews)),
				zap.Bool("uploaded", r.IsUpload),
			)
			if werr := writeJSON(os.Stdout, r); werr != nil {
				return werr
			}
		}
		return err
	},
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("id", "", "restaurant identifier (0x...:0x...)")
	cmd.Flags().String("name", "", "restaurant name to resolve by search")
}

func targetFromFlags(cmd *cobra.Command) (collector.Target, error) {
	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("name")
	if id == "" && name == "" {
		return collector.Target{}, eris.New("one of --id or --name is required")
	}
	return collector.Target{ID: id, Name: name}, nil
}

// applyCollectFlags overlays review flags on the loaded config.
func applyCollectFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("sort") {
		cfg.Reviews.Sort, _ = cmd.Flags().GetString("sort")
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.Reviews.MaxPages, _ = cmd.Flags().GetInt("max-pages")
	}
	if cmd.Flags().Changed("snapshot") {
		cfg.Snapshot.Path, _ = cmd.Flags().GetString("snapshot")
	}
}

func addCollectFlags(cmd *cobra.Command) {
	cmd.Flags().String("sort", "", "review sort: relevance, newest, highest, lowest (overrides reviews.sort)")
	cmd.Flags().Int("max-pages", 0, "maximum review pages per restaurant (overrides reviews.max_pages)")
	cmd.Flags().String("snapshot", "", "snapshot file path (overrides snapshot.path)")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return eris.Wrap(enc.Encode(v), "write json")
}

func init() {
	addAreaFlags(collectCmd)
	addCollectFlags(collectCmd)
	addTargetFlags(collectOneCmd)
	addCollectFlags(collectOneCmd)
	rootCmd.AddCommand(collectCmd, collectOneCmd)
}
