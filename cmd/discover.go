package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/collector"
	"github.com/ntoujavaproject/store-strategist/internal/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Grid-scan an area for restaurant identifiers",
	Long:  "Searches every cell of a square lattice over the configured area and prints the identifiers not already in the sink or catalog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyAreaFlags(cmd)
		if err := validateFor(cmd, "discover"); err != nil {
			return err
		}

		env, err := initCollector(ctx, cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		area := collector.AreaFromConfig(cfg)
		zap.L().Info("discover starting",
			zap.String("command", "discover"),
			zap.Int("cells", discovery.CellCount(area.RadiusM, area.CellRadiusM)),
		)

		res, err := env.Collector.Discover(ctx, area)
		if res != nil {
			writeIDs(os.Stdout, res.NewIDs)
			zap.L().Info("discover finished",
				zap.String("command", "discover"),
				zap.Int("found", res.Found),
				zap.Int("known", res.Known),
				zap.Int("new", len(res.NewIDs)),
				zap.Int("cells_failed", res.CellsFailed),
				zap.Any("bbox", res.BBox),
			)
		}
		return err
	},
}

// applyAreaFlags overlays explicitly set area flags on the loaded config.
func applyAreaFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("lat") {
		cfg.Grid.Lat, _ = cmd.Flags().GetFloat64("lat")
	}
	if cmd.Flags().Changed("lon") {
		cfg.Grid.Lon, _ = cmd.Flags().GetFloat64("lon")
	}
	if cmd.Flags().Changed("radius") {
		cfg.Grid.RadiusM, _ = cmd.Flags().GetFloat64("radius")
	}
	if cmd.Flags().Changed("cell-radius") {
		cfg.Grid.CellRadiusM, _ = cmd.Flags().GetFloat64("cell-radius")
	}
}

func addAreaFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "center latitude (overrides grid.lat)")
	cmd.Flags().Float64("lon", 0, "center longitude (overrides grid.lon)")
	cmd.Flags().Float64("radius", 0, "area radius in meters (overrides grid.radius_m)")
	cmd.Flags().Float64("cell-radius", 0, "cell search radius in meters (overrides grid.cell_radius_m)")
}

func writeIDs(w io.Writer, ids []string) {
	for _, id := range ids {
		_, _ = fmt.Fprintln(w, id)
	}
}

func init() {
	addAreaFlags(discoverCmd)
	rootCmd.AddCommand(discoverCmd)
}
