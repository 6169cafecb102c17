package sync

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/orbitalops/launchdash/internal/logger"
	"github.com/orbitalops/launchdash/internal/models"
	"github.com/orbitalops/launchdash/internal/spacex"
	"github.com/orbitalops/launchdash/internal/store"
	"github.com/orbitalops/launchdash/internal/telemetry"
)

const defaultWorkers = 8

// CacheInvalidator is the slice of the statistics cache the syncer needs.
type CacheInvalidator interface {
	Invalidate()
}

// Syncer drives one full synchronization pass against the external source.
//
// A pass fails only when the bulk launch fetch cannot be started; per-record
// failures (unresolvable references, persistence errors) are contained, logged
// and reflected in the processed count. Passes are idempotent by launch id and
// safe to trigger repeatedly or concurrently: the store's per-id upsert is the
// serialization point and the last writer wins.
type Syncer struct {
	store    store.Store
	source   spacex.Source
	resolver *Resolver
	cache    CacheInvalidator
	workers  int
}

// Option configures the Syncer
type Option func(*Syncer)

// WithWorkers bounds the per-record enrichment concurrency.
func WithWorkers(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewSyncer creates a Syncer over the given collaborators.
func NewSyncer(st store.Store, source spacex.Source, cache CacheInvalidator, opts ...Option) *Syncer {
	s := &Syncer{
		store:    st,
		source:   source,
		resolver: NewResolver(st, source),
		cache:    cache,
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synchronize executes one pass and returns the number of launches persisted.
//
// Records are consumed from the source one at a time and fanned out to a
// bounded worker pool; each record runs under its own unit of work. On
// completion (full or partial) every cached derived-statistics entry is
// invalidated so the next read recomputes from the now-current store. If the
// bulk fetch cannot be started the store and cache are left untouched.
func (s *Syncer) Synchronize(ctx context.Context) (int64, error) {
	logger.Info("Starting synchronization with launch API")

	var processed atomic.Int64
	var streamed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	streamErr := s.source.StreamLaunches(ctx, func(rec spacex.LaunchRecord) error {
		streamed++
		// Go blocks when all workers are busy, which backpressures the decoder.
		g.Go(func() error {
			if s.processRecord(gctx, rec) {
				processed.Add(1)
			}
			// Worker errors are contained per record; never cancel the group.
			return nil
		})
		return nil
	})

	_ = g.Wait()

	if streamErr != nil && streamed == 0 {
		// The pass could not start; nothing was written.
		telemetry.SyncPasses.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("failed to fetch launch collection: %w", streamErr)
	}
	if streamErr != nil {
		logger.Warnf("Launch stream ended early after %d records: %v", streamed, streamErr)
	}

	count := processed.Load()
	s.cache.Invalidate()
	telemetry.SyncPasses.WithLabelValues("completed").Inc()
	telemetry.LaunchesProcessed.Add(float64(count))
	logger.Infof("Synchronization completed: %d launches processed", count)

	return count, nil
}

// processRecord enriches and persists a single launch record. Returns whether
// the record was persisted.
func (s *Syncer) processRecord(ctx context.Context, rec spacex.LaunchRecord) bool {
	if rec.ID == "" {
		logger.Warnf("Skipping launch record without id (name=%q)", rec.Name)
		return false
	}

	var rocket *models.Rocket
	if rec.Rocket != "" {
		rocket = s.resolver.ResolveRocket(ctx, rec.Rocket)
	}

	var pad *models.LaunchPad
	if rec.Launchpad != "" {
		pad = s.resolver.ResolveLaunchPad(ctx, rec.Launchpad)
	}

	launch := mapLaunch(rec, rocket, pad)

	if err := s.store.UpsertLaunch(ctx, launch); err != nil {
		logger.Errorf("Failed to persist launch %s: %v", rec.ID, err)
		return false
	}
	return true
}
