package collector

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/fanout"
	"github.com/ntoujavaproject/store-strategist/internal/model"
	"github.com/ntoujavaproject/store-strategist/internal/store"
)

// UploadReport summarizes a retry pass over restaurants not yet uploaded.
type UploadReport struct {
	RunID   string       `json:"run_id,omitempty"`
	Pending int          `json:"pending"`
	Reviews fanout.Stats `json:"reviews"`
	Uploads fanout.Stats `json:"uploads"`
}

// UploadPending retries every restaurant the catalog still has pending.
func (c *Collector) UploadPending(ctx context.Context, limit int) (*UploadReport, error) {
	if c.store == nil {
		return nil, eris.New("collector: pending uploads need a catalog")
	}
	pending, err := c.store.PendingUploads(ctx, limit)
	if err != nil {
		return nil, eris.Wrap(err, "collector: list pending uploads")
	}
	restaurants := make([]*model.Restaurant, len(pending))
	for i := range pending {
		restaurants[i] = &pending[i]
	}
	return c.retryUploads(ctx, restaurants, "catalog")
}

// UploadSnapshot retries the restaurants in the snapshot at path that are
// not yet uploaded, then rewrites the snapshot with the new upload flags.
func (c *Collector) UploadSnapshot(ctx context.Context, path string) (*UploadReport, error) {
	restaurants, err := model.ReadSnapshot(path)
	if err != nil {
		return nil, err
	}

	var pending []*model.Restaurant
	for _, r := range restaurants {
		if r != nil && !r.IsUpload {
			pending = append(pending, r)
		}
	}
	c.catalog(ctx, pending)
	report, err := c.retryUploads(ctx, pending, path)
	if report != nil && report.Uploads.Succeeded > 0 {
		if werr := model.WriteSnapshot(path, restaurants); werr != nil {
			return report, eris.Wrap(werr, "collector: rewrite snapshot")
		}
	}
	return report, err
}

func (c *Collector) retryUploads(ctx context.Context, restaurants []*model.Restaurant, source string) (*UploadReport, error) {
	runID, finish, err := c.startRun(ctx, store.RunParams{
		Kind:   store.RunKindUpload,
		Params: map[string]any{"source": source, "pending": len(restaurants)},
	})
	if err != nil {
		return nil, err
	}

	report := &UploadReport{RunID: runID, Pending: len(restaurants)}
	ready, err := c.refetchMissingReviews(ctx, restaurants, report)
	if err == nil {
		report.Uploads, err = c.Upload(ctx, ready)
	}
	finish(report, err)

	zap.L().Info("upload retry finished",
		zap.String("component", "collector"),
		zap.String("source", source),
		zap.Int("pending", report.Pending),
		zap.Int("uploaded", report.Uploads.Succeeded),
		zap.Int("failed", report.Uploads.Failed),
	)
	return report, err
}

// refetchMissingReviews reads the feed again for restaurants that have no
// reviews, which is how an aborted feed is left. It returns the restaurants
// ready to upload; those whose feed aborts again stay pending.
func (c *Collector) refetchMissingReviews(ctx context.Context, restaurants []*model.Restaurant, report *UploadReport) ([]*model.Restaurant, error) {
	ready := make([]*model.Restaurant, 0, len(restaurants))
	var missing []*model.Restaurant
	for _, r := range restaurants {
		if len(r.Reviews) == 0 {
			missing = append(missing, r)
		} else {
			ready = append(ready, r)
		}
	}
	if len(missing) == 0 {
		return ready, nil
	}

	collected, stats, err := c.CollectReviews(ctx, missing)
	report.Reviews = stats
	c.catalog(ctx, collected)
	return append(ready, collected...), err
}
