// Package vision runs content analysis over scraped media: a bounded
// concurrency batch executor, a generative per-item analyzer, and the
// aggregation of per-item results into a competitor-level report.
package vision

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives one call per completed item (success or failure),
// with completed strictly increasing from 1 to total.
type ProgressFunc func(completed, total int)

// BatchConfig tunes AnalyzeBatch.
type BatchConfig struct {
	// MaxConcurrent bounds in-flight analyses. Items are split into
	// sequential batches of this size; the whole batch completes before the
	// next starts. Zero means 3.
	MaxConcurrent int
	// BatchDelay is a fixed pause between batches, to respect provider rate
	// limits. No delay is inserted within a batch.
	BatchDelay time.Duration
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// AnalyzeBatch applies analyzeOne to every item with bounded concurrency and
// per-item failure isolation: a failed item is logged and dropped, never
// aborting the batch. Result ordering follows completion order, not input
// order.
func AnalyzeBatch[T, R any](ctx context.Context, items []T, analyzeOne func(context.Context, T) (R, error), cfg BatchConfig) []R {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	total := len(items)
	results := make([]R, 0, total)

	var mu sync.Mutex
	completed := 0

	finishOne := func(r R, err error, idx int) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			cfg.Logger.Warn("item analysis failed, dropping item", "index", idx, "err", err)
		} else {
			results = append(results, r)
		}
		completed++
		if cfg.OnProgress != nil {
			cfg.OnProgress(completed, total)
		}
	}

	for start := 0; start < total; start += cfg.MaxConcurrent {
		if ctx.Err() != nil {
			break
		}

		end := start + cfg.MaxConcurrent
		if end > total {
			end = total
		}

		g, gCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				r, err := analyzeOne(gCtx, items[i])
				finishOne(r, err, i)
				// Item failures are isolated; never fail the group.
				return nil
			})
		}
		_ = g.Wait()

		if end < total && cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(cfg.BatchDelay):
			}
		}
	}

	return results
}
