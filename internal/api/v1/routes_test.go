package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalops/launchdash/internal/api"
	v1 "github.com/orbitalops/launchdash/internal/api/v1"
	"github.com/orbitalops/launchdash/internal/auth"
	"github.com/orbitalops/launchdash/internal/models"
	"github.com/orbitalops/launchdash/internal/stats"
	"github.com/orbitalops/launchdash/internal/store"
)

// fakeStore overrides only the store methods the handlers use.
type fakeStore struct {
	store.Store

	listFilter  store.LaunchFilter
	listPage    store.PageRequest
	listResult  *store.Page[*models.Launch]
	findLaunch  *models.Launch
	findLaunchE error
}

func (f *fakeStore) ListLaunches(
	_ context.Context, filter store.LaunchFilter, page store.PageRequest,
) (*store.Page[*models.Launch], error) {
	f.listFilter = filter
	f.listPage = page
	if f.listResult != nil {
		return f.listResult, nil
	}
	return &store.Page[*models.Launch]{Content: []*models.Launch{}, Size: page.Size}, nil
}

func (f *fakeStore) FindLaunch(_ context.Context, _ string) (*models.Launch, error) {
	if f.findLaunchE != nil {
		return nil, f.findLaunchE
	}
	return f.findLaunch, nil
}

type fakeStats struct {
	global *stats.LaunchStats
	yearly []stats.YearlyStats
	err    error
}

func (f *fakeStats) GlobalStats(context.Context) (*stats.LaunchStats, error) {
	return f.global, f.err
}

func (f *fakeStats) YearlyStats(context.Context) ([]stats.YearlyStats, error) {
	return f.yearly, f.err
}

type fakeSyncer struct {
	count int64
	err   error
	calls int
}

func (f *fakeSyncer) Synchronize(context.Context) (int64, error) {
	f.calls++
	return f.count, f.err
}

type fakeAuthenticator struct {
	identities map[string]auth.Identity
	passwords  map[string]string
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, email, password string) (auth.Identity, error) {
	if f.passwords[email] != password {
		return auth.Identity{}, auth.ErrInvalidCredentials
	}
	return f.identities[email], nil
}

type testEnv struct {
	server http.Handler
	store  *fakeStore
	stats  *fakeStats
	syncer *fakeSyncer
	tokens *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store:  &fakeStore{},
		stats:  &fakeStats{global: &stats.LaunchStats{}},
		syncer: &fakeSyncer{},
		tokens: auth.NewTokenService("test-secret", time.Hour),
	}

	users := &fakeAuthenticator{
		passwords: map[string]string{
			"admin@example.com": "admin-pw",
			"user@example.com":  "user-pw",
		},
		identities: map[string]auth.Identity{
			"admin@example.com": {Email: "admin@example.com", Roles: []string{models.RoleUser, models.RoleAdmin}},
			"user@example.com":  {Email: "user@example.com", Roles: []string{models.RoleUser}},
		},
	}

	routes := v1.NewRoutes(env.store, env.stats, env.syncer, users, env.tokens)
	env.server = api.NewServer(routes, env.tokens)
	return env
}

func (e *testEnv) tokenFor(t *testing.T, email string, roles ...string) string {
	t.Helper()
	token, err := e.tokens.Issue(auth.Identity{Email: email, Roles: roles})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *strings.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	} else {
		reqBody = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reqBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/login", "",
		`{"email": "admin@example.com", "password": "admin-pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.Type)

	identity, err := env.tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", identity.Email)
	assert.True(t, identity.HasRole(models.RoleAdmin))
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{
			name:     "wrong password",
			body:     `{"email": "admin@example.com", "password": "nope"}`,
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "unknown user",
			body:     `{"email": "ghost@example.com", "password": "pw"}`,
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing fields",
			body:     `{"email": "admin@example.com"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed body",
			body:     `{`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth/login", "", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestDashboardRequiresToken(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, path := range []string{"/dashboard/kpis", "/dashboard/stats/yearly", "/dashboard/launches"} {
		rec := env.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestGetKpis(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.stats.global = &stats.LaunchStats{TotalLaunches: 42, SuccessRate: 95.5}

	token := env.tokenFor(t, "user@example.com", models.RoleUser)
	rec := env.do(t, http.MethodGet, "/dashboard/kpis", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got stats.LaunchStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(42), got.TotalLaunches)
	assert.InDelta(t, 95.5, got.SuccessRate, 0.001)
}

func TestGetYearlyStats(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.stats.yearly = []stats.YearlyStats{
		{Year: 2023, TotalLaunches: 10, SuccessRate: 90},
		{Year: 2024, TotalLaunches: 5, SuccessRate: 100},
	}

	token := env.tokenFor(t, "user@example.com", models.RoleUser)
	rec := env.do(t, http.MethodGet, "/dashboard/stats/yearly", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []stats.YearlyStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, 2023, got[0].Year)
}

func TestGetKpisError(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.stats.err = errors.New("db down")
	env.stats.global = nil

	token := env.tokenFor(t, "user@example.com", models.RoleUser)
	rec := env.do(t, http.MethodGet, "/dashboard/kpis", token, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetLaunchesFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		query       string
		wantYear    *int
		wantSuccess *bool
		wantPage    int
		wantSize    int
	}{
		{
			name:     "defaults",
			query:    "",
			wantPage: 0,
			wantSize: 10,
		},
		{
			name:     "year filter",
			query:    "?year=2023",
			wantYear: intPtr(2023),
			wantPage: 0,
			wantSize: 10,
		},
		{
			name:        "success filter",
			query:       "?success=true",
			wantSuccess: boolPtr(true),
			wantPage:    0,
			wantSize:    10,
		},
		{
			name:     "pagination",
			query:    "?page=2&size=25",
			wantPage: 2,
			wantSize: 25,
		},
		{
			name:     "size is clamped",
			query:    "?size=5000",
			wantPage: 0,
			wantSize: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			token := env.tokenFor(t, "user@example.com", models.RoleUser)

			rec := env.do(t, http.MethodGet, "/dashboard/launches"+tt.query, token, "")
			require.Equal(t, http.StatusOK, rec.Code)

			assert.Equal(t, tt.wantYear, env.store.listFilter.Year)
			assert.Equal(t, tt.wantSuccess, env.store.listFilter.Success)
			assert.Equal(t, tt.wantPage, env.store.listPage.Page)
			assert.Equal(t, tt.wantSize, env.store.listPage.Size)
		})
	}
}

func TestGetLaunchesBadParameters(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	token := env.tokenFor(t, "user@example.com", models.RoleUser)

	for _, query := range []string{"?year=abc", "?success=maybe", "?page=-1", "?size=0"} {
		rec := env.do(t, http.MethodGet, "/dashboard/launches"+query, token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestGetLaunchByID(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.store.findLaunch = &models.Launch{ID: "l1", Name: "CRS-20"}

	token := env.tokenFor(t, "user@example.com", models.RoleUser)
	rec := env.do(t, http.MethodGet, "/dashboard/launches/l1", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Launch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "CRS-20", got.Name)
}

func TestGetLaunchByIDNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.store.findLaunchE = store.ErrNotFound

	token := env.tokenFor(t, "user@example.com", models.RoleUser)
	rec := env.do(t, http.MethodGet, "/dashboard/launches/missing", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResyncRequiresAdminRole(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/admin/resync", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userToken := env.tokenFor(t, "user@example.com", models.RoleUser)
	rec = env.do(t, http.MethodPost, "/admin/resync", userToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, env.syncer.calls)
}

func TestResync(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.syncer.count = 17

	token := env.tokenFor(t, "admin@example.com", models.RoleUser, models.RoleAdmin)
	rec := env.do(t, http.MethodPost, "/admin/resync", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp v1.ResyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(17), resp.LaunchesProcessed)
	assert.Equal(t, 1, env.syncer.calls)
}

func TestResyncFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.syncer.err = errors.New("upstream unreachable")

	token := env.tokenFor(t, "admin@example.com", models.RoleUser, models.RoleAdmin)
	rec := env.do(t, http.MethodPost, "/admin/resync", token, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp v1.ResyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "upstream unreachable")
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }
