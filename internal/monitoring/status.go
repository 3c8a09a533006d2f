package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ntoujavaproject/store-strategist/internal/store"
)

// StatusSnapshot is a point-in-time view of the catalog.
type StatusSnapshot struct {
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	RunFailRate  float64 `json:"run_fail_rate"`

	Restaurants    int `json:"restaurants"`
	PendingUploads int `json:"pending_uploads"`

	LastRun     *store.Run `json:"last_run,omitempty"`
	CollectedAt time.Time  `json:"collected_at"`
}

// StatusCollector reads catalog health from the store.
type StatusCollector struct {
	store store.Store
}

// NewStatusCollector creates a collector over st.
func NewStatusCollector(st store.Store) *StatusCollector {
	return &StatusCollector{store: st}
}

// Collect summarizes the most recent runLimit runs and the restaurant table.
func (c *StatusCollector) Collect(ctx context.Context, runLimit int) (*StatusSnapshot, error) {
	snap := &StatusSnapshot{CollectedAt: time.Now().UTC()}

	runs, err := c.store.ListRuns(ctx, runLimit)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}
	snap.RunsTotal = len(runs)
	for _, r := range runs {
		switch r.Status {
		case store.RunStatusComplete:
			snap.RunsComplete++
		case store.RunStatusFailed:
			snap.RunsFailed++
		case store.RunStatusRunning:
			snap.RunsRunning++
		}
	}
	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.RunFailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if len(runs) > 0 {
		last := runs[0]
		snap.LastRun = &last
	}

	ids, err := c.store.KnownIDs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: known ids")
	}
	snap.Restaurants = len(ids)

	pending, err := c.store.PendingUploads(ctx, 0)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: pending uploads")
	}
	snap.PendingUploads = len(pending)

	return snap, nil
}
