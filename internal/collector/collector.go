// Package collector wires discovery, place lookup, review collection and
// upload into the batch passes the CLI runs.
package collector

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/config"
	"github.com/ntoujavaproject/store-strategist/internal/discovery"
	"github.com/ntoujavaproject/store-strategist/internal/fanout"
	"github.com/ntoujavaproject/store-strategist/internal/model"
	"github.com/ntoujavaproject/store-strategist/internal/monitoring"
	"github.com/ntoujavaproject/store-strategist/internal/resilience"
	"github.com/ntoujavaproject/store-strategist/internal/review"
	"github.com/ntoujavaproject/store-strategist/internal/sink"
	"github.com/ntoujavaproject/store-strategist/internal/store"
	"github.com/ntoujavaproject/store-strategist/pkg/gmaps"
)

// Options holds every tunable of a collector. Zero values take package
// defaults where one exists.
type Options struct {
	Facets       []string
	PoolSize     int
	Reviews      review.Options
	NetworkRetry resilience.Policy
	SinkRetry    resilience.Policy
	// SnapshotPath is rewritten after each stage of an area pass. Empty
	// disables snapshots.
	SnapshotPath string
}

// OptionsFromConfig maps loaded configuration onto collector options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	sort := model.SortNewest
	if cfg.Reviews.Sort != "" {
		s, err := model.ParseSortMode(cfg.Reviews.Sort)
		if err != nil {
			return Options{}, eris.Wrap(err, "collector: reviews.sort")
		}
		sort = s
	}
	network := resilience.FromConfig(resilience.ClassNetwork, cfg.Retry.Network.MaxAttempts, cfg.Retry.Network.BaseDelayMs)
	return Options{
		Facets:   cfg.Grid.Facets,
		PoolSize: cfg.Pool.Size,
		Reviews: review.Options{
			MaxPages:  cfg.Reviews.MaxPages,
			Sort:      sort,
			PageDelay: time.Duration(cfg.Reviews.PageDelayMs) * time.Millisecond,
			Retry:     network,
		},
		NetworkRetry: network,
		SinkRetry:    resilience.FromConfig(resilience.ClassSink, cfg.Retry.Sink.MaxAttempts, cfg.Retry.Sink.BaseDelayMs),
		SnapshotPath: cfg.Snapshot.Path,
	}, nil
}

// AreaFromConfig returns the configured discovery area.
func AreaFromConfig(cfg *config.Config) discovery.Area {
	return discovery.Area{
		Lat:         cfg.Grid.Lat,
		Lon:         cfg.Grid.Lon,
		RadiusM:     cfg.Grid.RadiusM,
		CellRadiusM: cfg.Grid.CellRadiusM,
	}
}

// Collector runs collection passes against one upstream client and one sink.
type Collector struct {
	opts     Options
	client   gmaps.Client
	searcher *discovery.CellSearcher
	planner  *discovery.Planner
	pager    *review.Pager
	uploader *sink.Uploader
	sink     sink.Sink
	store    store.Store
	metrics  *monitoring.Metrics
	unitObs  fanout.Observer
}

// New creates a Collector. st and metrics may be nil; without a catalog no
// runs are recorded and pending uploads are not tracked.
func New(opts Options, client gmaps.Client, s sink.Sink, st store.Store, metrics *monitoring.Metrics) *Collector {
	if opts.PoolSize <= 0 {
		opts.PoolSize = fanout.DefaultPoolSize
	}

	var (
		unitObs   fanout.Observer
		uploadObs sink.UploadObserver
	)
	pager := review.NewPager(client, opts.Reviews)
	if metrics != nil {
		unitObs = metrics
		uploadObs = metrics
		pager = pager.WithObserver(metrics)
	}

	searcher := discovery.NewCellSearcher(client, opts.Facets, opts.NetworkRetry)
	return &Collector{
		opts:     opts,
		client:   client,
		searcher: searcher,
		planner:  discovery.NewPlanner(searcher, discovery.PlannerConfig{PoolSize: opts.PoolSize, Observer: unitObs}),
		pager:    pager,
		uploader: sink.NewUploader(s, opts.SinkRetry, uploadObs),
		sink:     s,
		store:    st,
		metrics:  metrics,
		unitObs:  unitObs,
	}
}

func (c *Collector) fanoutOptions(name string) fanout.Options {
	return fanout.Options{Name: name, PoolSize: c.opts.PoolSize, Observer: c.unitObs}
}

// runRecorder closes out a catalog run. It is a no-op without a catalog.
type runRecorder func(stats any, runErr error)

// startRun records the start of a run in the catalog.
func (c *Collector) startRun(ctx context.Context, params store.RunParams) (string, runRecorder, error) {
	if c.store == nil {
		return "", func(any, error) {}, nil
	}
	run, err := c.store.CreateRun(ctx, params)
	if err != nil {
		return "", nil, eris.Wrap(err, "collector: create run")
	}
	log := zap.L().With(zap.String("component", "collector"), zap.String("run_id", run.ID))
	finish := func(stats any, runErr error) {
		// The pass context may already be cancelled.
		bg := context.WithoutCancel(ctx)
		if runErr != nil {
			if err := c.store.FailRun(bg, run.ID, runErr); err != nil {
				log.Warn("collector: failed to record run failure", zap.Error(err))
			}
			return
		}
		if err := c.store.CompleteRun(bg, run.ID, stats); err != nil {
			log.Warn("collector: failed to complete run", zap.Error(err))
		}
	}
	return run.ID, finish, nil
}

// catalog upserts restaurants into the catalog, logging failures.
func (c *Collector) catalog(ctx context.Context, restaurants []*model.Restaurant) {
	if c.store == nil || len(restaurants) == 0 {
		return
	}
	vals := make([]model.Restaurant, 0, len(restaurants))
	for _, r := range restaurants {
		vals = append(vals, *r)
	}
	if err := c.store.UpsertRestaurants(context.WithoutCancel(ctx), vals); err != nil {
		zap.L().Warn("collector: catalog upsert failed",
			zap.String("component", "collector"),
			zap.Int("restaurants", len(vals)),
			zap.Error(err),
		)
	}
}

// snapshot rewrites the snapshot file, logging failures.
func (c *Collector) snapshot(restaurants []*model.Restaurant, stage string) {
	if c.opts.SnapshotPath == "" {
		return
	}
	if err := model.WriteSnapshot(c.opts.SnapshotPath, restaurants); err != nil {
		zap.L().Warn("collector: snapshot write failed",
			zap.String("component", "collector"),
			zap.String("stage", stage),
			zap.String("path", c.opts.SnapshotPath),
			zap.Error(err),
		)
		return
	}
	zap.L().Debug("snapshot written",
		zap.String("component", "collector"),
		zap.String("stage", stage),
		zap.Int("restaurants", len(restaurants)),
	)
}
