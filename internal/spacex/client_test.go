package spacex_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalops/launchdash/internal/spacex"
)

func TestStreamLaunches(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/launches", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "l1", "name": "CRS-20", "date_utc": "2020-03-07T04:50:31.000Z", "success": true,
			 "rocket": "r1", "launchpad": "p1", "payloads": ["pl1"]},
			{"id": "l2", "name": "Starlink-5", "date_utc": "2020-03-18T12:16:39.000Z", "success": null}
		]`))
	}))
	defer srv.Close()

	client := spacex.NewClient(srv.URL)

	var records []spacex.LaunchRecord
	err := client.StreamLaunches(context.Background(), func(rec spacex.LaunchRecord) error {
		records = append(records, rec)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "l1", records[0].ID)
	assert.Equal(t, "CRS-20", records[0].Name)
	require.NotNil(t, records[0].Success)
	assert.True(t, *records[0].Success)
	assert.Equal(t, "r1", records[0].Rocket)
	assert.Equal(t, []string{"pl1"}, records[0].Payloads)
	assert.Nil(t, records[1].Success)
}

func TestStreamLaunchesServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := spacex.NewClient(srv.URL)

	err := client.StreamLaunches(context.Background(), func(spacex.LaunchRecord) error {
		t.Fatal("callback must not run on a failed fetch")
		return nil
	})
	require.Error(t, err)

	var httpErr *spacex.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestStreamLaunchesSkipsMalformedElement(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// The second element does not fit the record shape; the elements
		// around it must still be delivered.
		_, _ = w.Write([]byte(`[{"id": "l1", "name": "good"}, {"id": 42}, {"id": "l3"}]`))
	}))
	defer srv.Close()

	client := spacex.NewClient(srv.URL)

	var seen []string
	err := client.StreamLaunches(context.Background(), func(rec spacex.LaunchRecord) error {
		seen = append(seen, rec.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"l1", "l3"}, seen)
}

func TestStreamLaunchesBrokenJSONEndsStream(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Syntactically broken JSON cannot be resynchronized; the stream ends
		// after the records decoded so far.
		_, _ = w.Write([]byte(`[{"id": "l1"}, {"id": `))
	}))
	defer srv.Close()

	client := spacex.NewClient(srv.URL)

	var seen []string
	err := client.StreamLaunches(context.Background(), func(rec spacex.LaunchRecord) error {
		seen = append(seen, rec.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, seen)
}

func TestStreamLaunchesNotAnArray(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "nope"}`))
	}))
	defer srv.Close()

	client := spacex.NewClient(srv.URL)

	err := client.StreamLaunches(context.Background(), func(spacex.LaunchRecord) error {
		return nil
	})
	require.Error(t, err)
}

func TestStreamLaunchesCallbackError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "l1"}, {"id": "l2"}]`))
	}))
	defer srv.Close()

	client := spacex.NewClient(srv.URL)

	wantErr := errors.New("stop")
	var calls int
	err := client.StreamLaunches(context.Background(), func(spacex.LaunchRecord) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestGetRocket(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/rockets/r1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "r1", "name": "Falcon 9", "type": "rocket", "active": true,
			"country": "United States", "company": "SpaceX"}`))
	}))
	defer srv.Close()

	client := spacex.NewClient(srv.URL)

	rocket, err := client.GetRocket(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", rocket.ID)
	assert.Equal(t, "Falcon 9", rocket.Name)
	assert.True(t, rocket.Active)
}

func TestGetRocketNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := spacex.NewClient(srv.URL)

	_, err := client.GetRocket(context.Background(), "missing")
	var httpErr *spacex.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestGetRocketMissingID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name": "no id here"}`))
	}))
	defer srv.Close()

	client := spacex.NewClient(srv.URL)

	_, err := client.GetRocket(context.Background(), "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
}

func TestGetLaunchPad(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/launchpads/p1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "p1", "name": "LC-39A", "locality": "Cape Canaveral",
			"region": "Florida", "latitude": 28.608, "longitude": -80.604}`))
	}))
	defer srv.Close()

	client := spacex.NewClient(srv.URL)

	pad, err := client.GetLaunchPad(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "LC-39A", pad.Name)
	require.NotNil(t, pad.Latitude)
	assert.InDelta(t, 28.608, *pad.Latitude, 0.001)
}
