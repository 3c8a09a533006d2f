package collector

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/discovery"
	"github.com/ntoujavaproject/store-strategist/internal/fanout"
	"github.com/ntoujavaproject/store-strategist/internal/model"
	"github.com/ntoujavaproject/store-strategist/internal/resilience"
	"github.com/ntoujavaproject/store-strategist/internal/review"
	"github.com/ntoujavaproject/store-strategist/internal/store"
	"github.com/ntoujavaproject/store-strategist/pkg/gmaps"
)

// AreaReport summarizes one full area pass.
type AreaReport struct {
	RunID       string                `json:"run_id,omitempty"`
	Scan        *discovery.ScanResult `json:"scan,omitempty"`
	Places      fanout.Stats          `json:"places"`
	Reviews     fanout.Stats          `json:"reviews"`
	Uploads     fanout.Stats          `json:"uploads"`
	Restaurants int                   `json:"restaurants"`
	ReviewCount int                   `json:"review_count"`
	Uploaded    int                   `json:"uploaded"`
	Duration    time.Duration         `json:"duration"`
}

// ErrUnknownPlace is returned for an id whose place page has no usable
// name or address.
var ErrUnknownPlace = eris.New("place has no name or address")

// lookupPlace fetches name and address for id under the network retry
// policy.
func (c *Collector) lookupPlace(ctx context.Context, id string) (*gmaps.Place, error) {
	place, err := resilience.DoVal(ctx, c.opts.NetworkRetry.WithLogger("place_info"), func(ctx context.Context) (*gmaps.Place, error) {
		return c.client.PlaceInfo(ctx, id)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "collector: place info %s", id)
	}
	return place, nil
}

// Enrich turns identifiers into restaurants. Places whose name or address
// cannot be read are skipped; lookup failures drop only that place.
func (c *Collector) Enrich(ctx context.Context, ids []string) ([]*model.Restaurant, fanout.Stats, error) {
	results, stats, runErr := fanout.Run(ctx, c.fanoutOptions("places"), ids, func(ctx context.Context, id string) (*model.Restaurant, error) {
		place, err := c.lookupPlace(ctx, id)
		if err != nil {
			return nil, err
		}
		if !place.Known() {
			zap.L().Info("skipping place without name or address",
				zap.String("component", "collector"),
				zap.String("id", id),
				zap.String("name", place.Name),
			)
			return nil, nil
		}
		return &model.Restaurant{ID: id, Name: place.Name, Address: place.Address}, nil
	})

	restaurants := make([]*model.Restaurant, 0, len(results))
	for _, r := range results {
		if r != nil {
			restaurants = append(restaurants, r)
		}
	}
	return restaurants, stats, runErr
}

// collectReviews paginates and extracts the reviews of one restaurant. An
// aborted feed is an error; an early end keeps the pages already read.
func (c *Collector) collectReviews(ctx context.Context, pager *review.Pager, r *model.Restaurant) error {
	res := pager.Fetch(ctx, r.ID)
	if res.State == review.StateAborted {
		return eris.Wrapf(res.Err, "collector: reviews %s", r.ID)
	}
	r.Reviews = review.ExtractAll(res.Records)
	zap.L().Debug("reviews collected",
		zap.String("component", "collector"),
		zap.String("id", r.ID),
		zap.Int("pages", res.Pages),
		zap.Int("reviews", len(r.Reviews)),
	)
	return nil
}

// CollectReviews fills Reviews on each restaurant and returns the ones whose
// feed was read. A restaurant whose feed aborted is left out and stays
// pending in the catalog with the abort as its error, so it is never
// uploaded without its reviews. Each unit writes only its own restaurant.
func (c *Collector) CollectReviews(ctx context.Context, restaurants []*model.Restaurant) ([]*model.Restaurant, fanout.Stats, error) {
	results, stats, runErr := fanout.Run(ctx, c.fanoutOptions("reviews"), restaurants, func(ctx context.Context, r *model.Restaurant) (*model.Restaurant, error) {
		if err := c.collectReviews(ctx, c.pager, r); err != nil {
			c.recordUpload(ctx, r.ID, err)
			return nil, err
		}
		return r, nil
	})

	collected := make([]*model.Restaurant, 0, len(results))
	for _, r := range results {
		if r != nil {
			collected = append(collected, r)
		}
	}
	return collected, stats, runErr
}

// recordUpload mirrors an upload outcome into the catalog. A non-nil
// uploadErr keeps id pending.
func (c *Collector) recordUpload(ctx context.Context, id string, uploadErr error) {
	if c.store == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	var err error
	if uploadErr != nil {
		err = c.store.RecordUploadFailure(bg, id, uploadErr)
	} else {
		err = c.store.MarkUploaded(bg, id)
	}
	if err != nil {
		zap.L().Warn("collector: catalog upload state not saved",
			zap.String("component", "collector"),
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

// upload writes one restaurant and mirrors the outcome into the catalog.
func (c *Collector) upload(ctx context.Context, r *model.Restaurant) error {
	if r.IsUpload {
		return nil
	}
	err := c.uploader.Upload(ctx, r)
	c.recordUpload(ctx, r.ID, err)
	return err
}

// Upload writes every restaurant not yet uploaded to the sink. Failed
// uploads stay IsUpload=false and are left pending in the catalog.
func (c *Collector) Upload(ctx context.Context, restaurants []*model.Restaurant) (fanout.Stats, error) {
	_, stats, err := fanout.Run(ctx, c.fanoutOptions("uploads"), restaurants, func(ctx context.Context, r *model.Restaurant) (struct{}, error) {
		return struct{}{}, c.upload(ctx, r)
	})
	return stats, err
}

// RunArea discovers, enriches, collects and uploads every new restaurant in
// area. Restaurants whose review feed aborted are kept but not uploaded.
// The snapshot is rewritten after enrichment, after review collection
// and after upload. A cancelled pass keeps and snapshots what it has.
func (c *Collector) RunArea(ctx context.Context, area discovery.Area) (*AreaReport, []*model.Restaurant, error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("component", "collector"),
		zap.Float64("lat", area.Lat),
		zap.Float64("lon", area.Lon),
		zap.Float64("radius_m", area.RadiusM),
	)

	params := c.areaParams(area)
	params["sort"] = c.pager.Options().Sort.String()
	params["max_pages"] = c.pager.Options().MaxPages
	runID, finish, err := c.startRun(ctx, store.RunParams{
		Kind:    store.RunKindCollect,
		Lat:     area.Lat,
		Lon:     area.Lon,
		RadiusM: area.RadiusM,
		Params:  params,
	})
	if err != nil {
		return nil, nil, err
	}
	report := &AreaReport{RunID: runID}
	log.Info("area pass starting", zap.String("run_id", runID))

	done := func(restaurants []*model.Restaurant, passErr error) (*AreaReport, []*model.Restaurant, error) {
		report.Restaurants = len(restaurants)
		report.ReviewCount = 0
		report.Uploaded = 0
		for _, r := range restaurants {
			report.ReviewCount += len(r.Reviews)
			if r.IsUpload {
				report.Uploaded++
			}
		}
		report.Duration = time.Since(start)
		finish(report, passErr)
		if passErr != nil {
			log.Warn("area pass ended early", zap.Error(passErr))
		} else {
			log.Info("area pass complete",
				zap.Int("restaurants", report.Restaurants),
				zap.Int("reviews", report.ReviewCount),
				zap.Int("uploaded", report.Uploaded),
				zap.Duration("duration", report.Duration),
			)
		}
		return report, restaurants, passErr
	}

	scan, err := c.discover(ctx, area)
	report.Scan = scan
	if scan == nil || err != nil {
		return done(nil, err)
	}

	restaurants, places, err := c.Enrich(ctx, scan.NewIDs)
	report.Places = places
	c.catalog(ctx, restaurants)
	c.snapshot(restaurants, "enriched")
	if err != nil {
		return done(restaurants, err)
	}

	collected, reviews, err := c.CollectReviews(ctx, restaurants)
	report.Reviews = reviews
	c.catalog(ctx, restaurants)
	c.snapshot(restaurants, "reviews")
	if err != nil {
		return done(restaurants, err)
	}

	uploads, err := c.Upload(ctx, collected)
	report.Uploads = uploads
	c.snapshot(restaurants, "uploaded")
	return done(restaurants, err)
}
