package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalops/launchdash/internal/models"
	"github.com/orbitalops/launchdash/internal/spacex"
	"github.com/orbitalops/launchdash/internal/sync"
)

func TestResolveRocketPrefersStore(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveRocket(ctx, &models.Rocket{ID: "r1", Name: "Falcon 9"}))

	// The source would serve a different name; the store row wins.
	source := &fakeSource{
		rockets: map[string]*spacex.RocketRecord{
			"r1": {ID: "r1", Name: "Falcon Heavy"},
		},
	}

	rocket := sync.NewResolver(st, source).ResolveRocket(ctx, "r1")
	require.NotNil(t, rocket)
	assert.Equal(t, "Falcon 9", rocket.Name)
}

func TestResolveRocketFetchesAndPersists(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	source := &fakeSource{
		rockets: map[string]*spacex.RocketRecord{
			"r1": {ID: "r1", Name: "Falcon 9", Type: "rocket", Active: true, Company: "SpaceX"},
		},
	}

	rocket := sync.NewResolver(st, source).ResolveRocket(ctx, "r1")
	require.NotNil(t, rocket)
	assert.Equal(t, "Falcon 9", rocket.Name)

	persisted, err := st.FindRocket(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "SpaceX", persisted.Company)
}

func TestResolveRocketPlaceholderSticks(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	source := &fakeSource{}
	resolver := sync.NewResolver(st, source)

	rocket := resolver.ResolveRocket(ctx, "r1")
	require.NotNil(t, rocket)
	assert.True(t, rocket.IsPlaceholder())

	// The source recovers, but the persisted placeholder is still served.
	source.rockets = map[string]*spacex.RocketRecord{
		"r1": {ID: "r1", Name: "Falcon 9"},
	}

	again := resolver.ResolveRocket(ctx, "r1")
	require.NotNil(t, again)
	assert.True(t, again.IsPlaceholder())
}

func TestResolveLaunchPadPlaceholder(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	pad := sync.NewResolver(st, &fakeSource{}).ResolveLaunchPad(ctx, "p1")
	require.NotNil(t, pad)
	assert.True(t, pad.IsPlaceholder())
	assert.Equal(t, models.PlaceholderLaunchPadName, pad.Name)
	assert.Nil(t, pad.Latitude)
	assert.Nil(t, pad.Longitude)

	persisted, err := st.FindLaunchPad(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, persisted.IsPlaceholder())
}

func TestResolveLaunchPadFetchesAndPersists(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	ctx := context.Background()

	lat, lon := 28.608, -80.604
	source := &fakeSource{
		pads: map[string]*spacex.LaunchPadRecord{
			"p1": {ID: "p1", Name: "LC-39A", Region: "Florida", Latitude: &lat, Longitude: &lon},
		},
	}

	pad := sync.NewResolver(st, source).ResolveLaunchPad(ctx, "p1")
	require.NotNil(t, pad)
	assert.Equal(t, "LC-39A", pad.Name)
	require.NotNil(t, pad.Latitude)
	assert.InDelta(t, 28.608, *pad.Latitude, 0.001)
}
