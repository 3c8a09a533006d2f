package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ntoujavaproject/store-strategist/internal/collector"
	"github.com/ntoujavaproject/store-strategist/internal/fetcher"
	"github.com/ntoujavaproject/store-strategist/internal/monitoring"
	"github.com/ntoujavaproject/store-strategist/internal/sink"
	"github.com/ntoujavaproject/store-strategist/internal/store"
	"github.com/ntoujavaproject/store-strategist/pkg/gmaps"
)

func initClient() gmaps.Client {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:     cfg.Upstream.UserAgent,
		Timeout:       time.Duration(cfg.Upstream.TimeoutSecs) * time.Second,
		RatePerSecond: cfg.Upstream.RatePerSecond,
		Burst:         cfg.Upstream.Burst,
	})
	return gmaps.NewClient(f, gmaps.WithBaseURL(cfg.Upstream.BaseURL))
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		MaxConns:    cfg.Store.MaxConns,
		MinConns:    cfg.Store.MinConns,
	})
}

// initSink opens Firestore, or an in-memory sink for --dry-run.
func initSink(ctx context.Context, cmd *cobra.Command) (sink.Sink, error) {
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		zap.L().Info("dry run: writes go to an in-memory sink", zap.String("command", cmd.Name()))
		return sink.NewMemory(), nil
	}
	return sink.NewFirestore(ctx, sink.FirestoreConfig{
		ProjectID:       cfg.Firestore.ProjectID,
		CredentialsFile: cfg.Firestore.CredentialsFile,
	})
}

// startMetrics serves metrics in the background when an address is set.
// The server stops with ctx.
func startMetrics(ctx context.Context, cmd *cobra.Command) *monitoring.Metrics {
	m := monitoring.NewMetrics()
	addr := cfg.Metrics.Addr
	if flagAddr, _ := cmd.Flags().GetString("metrics-addr"); flagAddr != "" {
		addr = flagAddr
	}
	if addr == "" {
		return m
	}
	go func() {
		if err := m.Serve(ctx, addr); err != nil {
			zap.L().Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return m
}

// collectEnv holds everything a collection command needs.
type collectEnv struct {
	Collector *collector.Collector
	Sink      sink.Sink
	Store     store.Store
	Metrics   *monitoring.Metrics
}

// Close releases the sink and catalog.
func (e *collectEnv) Close() {
	if e.Sink != nil {
		if err := e.Sink.Close(); err != nil {
			zap.L().Warn("close sink", zap.Error(err))
		}
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

func initCollector(ctx context.Context, cmd *cobra.Command) (*collectEnv, error) {
	opts, err := collector.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	env := &collectEnv{}
	env.Store, err = initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	env.Sink, err = initSink(ctx, cmd)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "init sink")
	}
	env.Metrics = startMetrics(ctx, cmd)
	env.Collector = collector.New(opts, initClient(), env.Sink, env.Store, env.Metrics)
	return env, nil
}

// validateFor checks config for mode, relaxing the sink requirement on a dry run.
func validateFor(cmd *cobra.Command, mode string) error {
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry && cfg.Firestore.ProjectID == "" {
		cp := *cfg
		cp.Firestore.ProjectID = "dry-run"
		return cp.Validate(mode)
	}
	return cfg.Validate(mode)
}
