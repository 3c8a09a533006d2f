package collector

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/discovery"
	"github.com/ntoujavaproject/store-strategist/internal/resilience"
	"github.com/ntoujavaproject/store-strategist/internal/store"
)

// KnownIDs returns every identifier already in the sink, plus those in the
// catalog when one is configured.
func (c *Collector) KnownIDs(ctx context.Context) (discovery.IDSet, error) {
	ids, err := resilience.DoVal(ctx, c.opts.SinkRetry.WithLogger("known_ids"), c.sink.KnownIDs)
	if err != nil {
		return nil, eris.Wrap(err, "collector: sink known ids")
	}
	known := discovery.NewIDSet(ids...)

	if c.store != nil {
		local, err := c.store.KnownIDs(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "collector: catalog known ids")
		}
		for _, id := range local {
			known.Add(id)
		}
	}
	return known, nil
}

// Discover scans area and records the scan as a discover run.
func (c *Collector) Discover(ctx context.Context, area discovery.Area) (*discovery.ScanResult, error) {
	_, finish, err := c.startRun(ctx, store.RunParams{
		Kind:    store.RunKindDiscover,
		Lat:     area.Lat,
		Lon:     area.Lon,
		RadiusM: area.RadiusM,
		Params:  c.areaParams(area),
	})
	if err != nil {
		return nil, err
	}

	res, err := c.discover(ctx, area)
	finish(res, err)
	return res, err
}

func (c *Collector) discover(ctx context.Context, area discovery.Area) (*discovery.ScanResult, error) {
	known, err := c.KnownIDs(ctx)
	if err != nil {
		return nil, err
	}

	res, err := c.planner.Scan(ctx, area, known)
	if res == nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.SetDiscovered(len(res.NewIDs))
	}
	zap.L().Info("discovery finished",
		zap.String("component", "collector"),
		zap.Int("cells", res.CellsPlanned),
		zap.Int("cells_failed", res.CellsFailed),
		zap.Int("new_ids", len(res.NewIDs)),
	)
	return res, err
}

// areaParams describes area for a run record, including the lattice extent
// when the area is valid.
func (c *Collector) areaParams(area discovery.Area) map[string]any {
	params := map[string]any{
		"cell_radius_m": area.CellRadiusM,
		"facets":        c.searcher.Facets(),
	}
	if bbox, err := area.BBox(); err == nil {
		params["bbox"] = bbox
	}
	return params
}
