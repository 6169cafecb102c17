// Package stats computes derived statistics over the persisted launch set.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orbitalops/launchdash/internal/logger"
	"github.com/orbitalops/launchdash/internal/models"
	"github.com/orbitalops/launchdash/internal/store"
)

// LaunchStats are the global KPIs. SuccessRate is a percentage in [0, 100]
// and is 0 when no launches are stored. NextLaunch is the launch with the
// earliest timestamp strictly after the time of computation, or nil.
type LaunchStats struct {
	TotalLaunches int64          `json:"totalLaunches"`
	SuccessRate   float64        `json:"successRate"`
	NextLaunch    *models.Launch `json:"nextLaunch,omitempty"`
}

// YearlyStats are the per-calendar-year aggregates. Years with zero launches
// are omitted.
type YearlyStats struct {
	Year          int     `json:"year"`
	TotalLaunches int64   `json:"totalLaunches"`
	SuccessRate   float64 `json:"successRate"`
}

// Engine computes global and yearly statistics from the store. Computations
// are read-only and safe to call concurrently with an in-flight sync pass;
// results overlapping a pass may reflect a partially-updated store, which is
// accepted. Results are cached until the cache is invalidated by the next
// successful synchronization.
type Engine struct {
	store store.Store
	cache *Cache
	now   func() time.Time
}

// NewEngine creates an Engine over the given store and cache.
func NewEngine(st store.Store, cache *Cache) *Engine {
	return &Engine{store: st, cache: cache, now: time.Now}
}

// GlobalStats returns the global KPIs, computing them on cache miss.
func (e *Engine) GlobalStats(ctx context.Context) (*LaunchStats, error) {
	if cached, ok := e.cache.getGlobal(); ok {
		return cached, nil
	}

	logger.Debugf("Calculating global launch statistics")

	total, err := e.store.CountLaunches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count launches: %w", err)
	}
	successful, err := e.store.CountSuccessfulLaunches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count successful launches: %w", err)
	}

	next, err := e.store.NextLaunchAfter(ctx, e.now())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to find next launch: %w", err)
	}

	result := &LaunchStats{
		TotalLaunches: total,
		SuccessRate:   successRate(successful, total),
		NextLaunch:    next,
	}

	e.cache.setGlobal(result)
	return result, nil
}

// YearlyStats returns one entry per calendar year containing at least one
// launch, ascending by year, computing them on cache miss.
func (e *Engine) YearlyStats(ctx context.Context) ([]YearlyStats, error) {
	if cached, ok := e.cache.getYearly(); ok {
		return cached, nil
	}

	logger.Debugf("Calculating yearly statistics")

	years, err := e.store.LaunchYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list launch years: %w", err)
	}

	result := make([]YearlyStats, 0, len(years))
	for _, year := range years {
		from, to := store.YearRange(year)

		total, err := e.store.CountLaunchesBetween(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to count launches for %d: %w", year, err)
		}
		successful, err := e.store.CountSuccessfulLaunchesBetween(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to count successful launches for %d: %w", year, err)
		}

		result = append(result, YearlyStats{
			Year:          year,
			TotalLaunches: total,
			SuccessRate:   successRate(successful, total),
		})
	}

	e.cache.setYearly(result)
	return result, nil
}

// successRate is 0 when total is 0, avoiding a division by zero.
func successRate(successful, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(successful) / float64(total) * 100
}
