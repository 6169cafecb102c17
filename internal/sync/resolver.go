// Package sync implements the synchronization pipeline: it pulls launch
// records from the external source, resolves their rocket and pad references,
// persists them idempotently, and invalidates the derived-statistics cache.
package sync

import (
	"context"

	"github.com/orbitalops/launchdash/internal/logger"
	"github.com/orbitalops/launchdash/internal/models"
	"github.com/orbitalops/launchdash/internal/spacex"
	"github.com/orbitalops/launchdash/internal/store"
	"github.com/orbitalops/launchdash/internal/telemetry"
)

// Resolver resolves a launch record's embedded rocket/pad identifiers to
// persisted entities. Resolution never fails outward: on a local store hit the
// row is returned as-is, on a miss the record is fetched from the external
// source and persisted, and when that fetch fails a placeholder row is
// persisted instead so the referencing launch can still be saved.
//
// A store hit is taken at face value, so a placeholder is never re-fetched on
// later passes; healing one requires purging its row first.
type Resolver struct {
	store  store.Store
	source spacex.Source
}

// NewResolver creates a Resolver over the given store and external source.
func NewResolver(st store.Store, source spacex.Source) *Resolver {
	return &Resolver{store: st, source: source}
}

// ResolveRocket returns a persisted rocket for id, fetching or synthesizing
// one as needed.
func (r *Resolver) ResolveRocket(ctx context.Context, id string) *models.Rocket {
	if rocket, err := r.store.FindRocket(ctx, id); err == nil {
		return rocket
	}

	rec, err := r.source.GetRocket(ctx, id)
	if err != nil {
		logger.Warnf("Failed to fetch rocket %s, using placeholder: %v", id, err)
		telemetry.PlaceholdersCreated.WithLabelValues("rocket").Inc()
		return r.saveRocket(ctx, models.NewPlaceholderRocket(id))
	}

	return r.saveRocket(ctx, &models.Rocket{
		ID:      rec.ID,
		Name:    rec.Name,
		Type:    rec.Type,
		Active:  rec.Active,
		Country: rec.Country,
		Company: rec.Company,
	})
}

// ResolveLaunchPad returns a persisted launch pad for id, fetching or
// synthesizing one as needed.
func (r *Resolver) ResolveLaunchPad(ctx context.Context, id string) *models.LaunchPad {
	if pad, err := r.store.FindLaunchPad(ctx, id); err == nil {
		return pad
	}

	rec, err := r.source.GetLaunchPad(ctx, id)
	if err != nil {
		logger.Warnf("Failed to fetch launchpad %s, using placeholder: %v", id, err)
		telemetry.PlaceholdersCreated.WithLabelValues("launchpad").Inc()
		return r.saveLaunchPad(ctx, models.NewPlaceholderLaunchPad(id))
	}

	return r.saveLaunchPad(ctx, &models.LaunchPad{
		ID:        rec.ID,
		Name:      rec.Name,
		Locality:  rec.Locality,
		Region:    rec.Region,
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
	})
}

// saveRocket persists with save-if-absent semantics; the store row, not this
// invocation's value, is authoritative after a concurrent write.
func (r *Resolver) saveRocket(ctx context.Context, rocket *models.Rocket) *models.Rocket {
	if err := r.store.SaveRocket(ctx, rocket); err != nil {
		// The launch referencing this rocket will fail its own save and be
		// counted there; the resolver contract stays error-free.
		logger.Errorf("Failed to persist rocket %s: %v", rocket.ID, err)
		return rocket
	}
	if persisted, err := r.store.FindRocket(ctx, rocket.ID); err == nil {
		return persisted
	}
	return rocket
}

func (r *Resolver) saveLaunchPad(ctx context.Context, pad *models.LaunchPad) *models.LaunchPad {
	if err := r.store.SaveLaunchPad(ctx, pad); err != nil {
		logger.Errorf("Failed to persist launch pad %s: %v", pad.ID, err)
		return pad
	}
	if persisted, err := r.store.FindLaunchPad(ctx, pad.ID); err == nil {
		return persisted
	}
	return pad
}
