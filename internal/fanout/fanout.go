// Package fanout runs independent units of work on a bounded pool.
//
// A unit's failure is recorded and never cancels its siblings. Results of
// completed units survive cancellation of the pass.
package fanout

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPoolSize is used when Options.PoolSize is not positive.
const DefaultPoolSize = 10

// Outcome is how a single unit ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Observer receives one call per finished or skipped unit. It must be safe
// for concurrent use.
type Observer interface {
	ObserveUnit(fanout string, outcome Outcome, elapsed time.Duration)
}

// Options configures one fan-out.
type Options struct {
	// Name labels logs and metrics, e.g. "cells" or "reviews".
	Name     string
	PoolSize int
	Observer Observer
	// ProgressEvery logs a progress line after this many completed units. Zero means 10.
	ProgressEvery int
}

// Stats counts units by outcome.
type Stats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Completed is the number of units that ran to an outcome.
func (s Stats) Completed() int {
	return s.Succeeded + s.Failed
}

// Run calls fn once per item on at most opts.PoolSize goroutines.
//
// The returned slice holds the results of successful units in input order.
// The error is non-nil only when ctx ended before every unit ran; the
// results and stats are still valid in that case.
func Run[T, R any](ctx context.Context, opts Options, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, Stats, error) {
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	every := opts.ProgressEvery
	if every <= 0 {
		every = 10
	}
	log := zap.L().With(zap.String("component", "fanout"), zap.String("fanout", opts.Name))

	results := make([]R, len(items))
	ok := make([]bool, len(items))
	var succeeded, failed, skipped, done atomic.Int64

	observe := func(o Outcome, elapsed time.Duration) {
		if opts.Observer != nil {
			opts.Observer.ObserveUnit(opts.Name, o, elapsed)
		}
	}

	// Units never return errors to the group, so the group context only
	// ends when the caller's does.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(poolSize)

	for i, item := range items {
		if gctx.Err() != nil {
			skipped.Add(int64(len(items) - i))
			for n := len(items) - i; n > 0; n-- {
				observe(OutcomeSkipped, 0)
			}
			break
		}
		i, item := i, item
		g.Go(func() error {
			if gctx.Err() != nil {
				skipped.Add(1)
				observe(OutcomeSkipped, 0)
				return nil
			}

			start := time.Now()
			res, err := fn(gctx, item)
			elapsed := time.Since(start)
			if err != nil {
				failed.Add(1)
				observe(OutcomeFailed, elapsed)
				log.Warn("unit failed", zap.Int("index", i), zap.Error(err))
			} else {
				results[i] = res
				ok[i] = true
				succeeded.Add(1)
				observe(OutcomeSucceeded, elapsed)
			}

			if n := done.Add(1); n%int64(every) == 0 {
				log.Info("progress", zap.Int64("completed", n), zap.Int("total", len(items)))
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]R, 0, succeeded.Load())
	for i := range results {
		if ok[i] {
			out = append(out, results[i])
		}
	}

	stats := Stats{
		Total:     len(items),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Skipped:   int(skipped.Load()),
	}
	log.Info("fanout complete",
		zap.Int("total", stats.Total),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
	)
	return out, stats, ctx.Err()
}
