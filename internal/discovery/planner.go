package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/fanout"
)

// Searcher is the per-cell search a Planner fans out.
type Searcher interface {
	Search(ctx context.Context, cell GeoCell) (IDSet, error)
}

// PlannerConfig controls a grid scan.
type PlannerConfig struct {
	PoolSize int
	Observer fanout.Observer
}

// ScanResult summarizes one grid scan.
type ScanResult struct {
	Area         Area          `json:"area"`
	BBox         *BBox         `json:"bbox,omitempty"`
	CellsPlanned int           `json:"cells_planned"`
	CellsOK      int           `json:"cells_ok"`
	CellsFailed  int           `json:"cells_failed"`
	CellsSkipped int           `json:"cells_skipped"`
	Found        int           `json:"found"`
	Known        int           `json:"known"`
	NewIDs       []string      `json:"new_ids"`
	Duration     time.Duration `json:"duration"`
}

// Planner expands an area into cells and searches them concurrently.
type Planner struct {
	searcher Searcher
	cfg      PlannerConfig
}

// NewPlanner creates a grid planner.
func NewPlanner(searcher Searcher, cfg PlannerConfig) *Planner {
	return &Planner{searcher: searcher, cfg: cfg}
}

// Scan searches every cell of area and returns the identifiers found that
// are not in known. A cancelled scan returns what the finished cells found
// together with the context error.
func (p *Planner) Scan(ctx context.Context, area Area, known IDSet) (*ScanResult, error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("component", "discovery"),
		zap.Float64("lat", area.Lat),
		zap.Float64("lon", area.Lon),
		zap.Float64("radius_m", area.RadiusM),
	)

	cells, err := PlanCells(area)
	if err != nil {
		return nil, err
	}
	bbox := CellBBox(cells)
	log.Info("scanning grid",
		zap.Int("cells", len(cells)),
		zap.Int("known", len(known)),
		zap.Any("bbox", bbox),
	)

	sets, stats, runErr := fanout.Run(ctx, fanout.Options{
		Name:     "cells",
		PoolSize: p.cfg.PoolSize,
		Observer: p.cfg.Observer,
	}, cells, p.searcher.Search)

	found := NewIDSet()
	for _, s := range sets {
		found.Union(s)
	}
	total := len(found)
	found.Subtract(known)

	result := &ScanResult{
		Area:         area,
		BBox:         bbox,
		CellsPlanned: len(cells),
		CellsOK:      stats.Succeeded,
		CellsFailed:  stats.Failed,
		CellsSkipped: stats.Skipped,
		Found:        total,
		Known:        total - len(found),
		NewIDs:       found.Sorted(),
		Duration:     time.Since(start),
	}

	log.Info("grid scan complete",
		zap.Int("cells_ok", result.CellsOK),
		zap.Int("cells_failed", result.CellsFailed),
		zap.Int("found", result.Found),
		zap.Int("new", len(result.NewIDs)),
		zap.Duration("duration", result.Duration),
	)
	return result, runErr
}
