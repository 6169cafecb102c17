// Package v1 provides the REST handlers for the launch dashboard API.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orbitalops/launchdash/internal/auth"
	"github.com/orbitalops/launchdash/internal/logger"
	"github.com/orbitalops/launchdash/internal/stats"
	"github.com/orbitalops/launchdash/internal/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Synchronizer triggers one synchronization pass.
type Synchronizer interface {
	Synchronize(ctx context.Context) (int64, error)
}

// StatsProvider serves derived statistics.
type StatsProvider interface {
	GlobalStats(ctx context.Context) (*stats.LaunchStats, error)
	YearlyStats(ctx context.Context) ([]stats.YearlyStats, error)
}

// Authenticator verifies login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (auth.Identity, error)
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginRequest is the /auth/login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the /auth/login response body.
type LoginResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

// ResyncResponse is the /admin/resync response body.
type ResyncResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	LaunchesProcessed int64  `json:"launchesProcessed,omitempty"`
}

// Routes holds the handler dependencies.
type Routes struct {
	store  store.Store
	stats  StatsProvider
	syncer Synchronizer
	users  Authenticator
	tokens *auth.TokenService
}

// NewRoutes creates a Routes instance with the provided collaborators.
func NewRoutes(
	st store.Store,
	sp StatsProvider,
	syncer Synchronizer,
	users Authenticator,
	tokens *auth.TokenService,
) *Routes {
	return &Routes{
		store:  st,
		stats:  sp,
		syncer: syncer,
		users:  users,
		tokens: tokens,
	}
}

// HealthRouter creates a router for health check endpoints
func HealthRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", healthHandler)
	return r
}

// AuthRouter creates the public authentication router.
func AuthRouter(routes *Routes) http.Handler {
	r := chi.NewRouter()
	r.Post("/login", routes.login)
	return r
}

// DashboardRouter creates the authenticated dashboard router.
func DashboardRouter(routes *Routes) http.Handler {
	r := chi.NewRouter()
	r.Get("/kpis", routes.getKpis)
	r.Get("/stats/yearly", routes.getYearlyStats)
	r.Get("/launches", routes.getLaunches)
	r.Get("/launches/{id}", routes.getLaunchByID)
	return r
}

// AdminRouter creates the admin-only router.
func AdminRouter(routes *Routes) http.Handler {
	r := chi.NewRouter()
	r.Post("/resync", routes.resync)
	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// login handles POST /auth/login
func (rr *Routes) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		rr.writeErrorResponse(w, "email and password are required", http.StatusBadRequest)
		return
	}

	identity, err := rr.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.Warnf("Authentication failed for email: %s", req.Email)
		rr.writeErrorResponse(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := rr.tokens.Issue(identity)
	if err != nil {
		logger.Errorf("Failed to issue token for %s: %v", identity.Email, err)
		rr.writeErrorResponse(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	logger.Infof("Login successful for user: %s with roles: %v", identity.Email, identity.Roles)
	rr.writeJSONResponse(w, LoginResponse{Token: token, Type: auth.TokenPrefix})
}

// getKpis handles GET /dashboard/kpis
func (rr *Routes) getKpis(w http.ResponseWriter, r *http.Request) {
	result, err := rr.stats.GlobalStats(r.Context())
	if err != nil {
		logger.Errorf("Failed to compute global stats: %v", err)
		rr.writeErrorResponse(w, "failed to compute statistics", http.StatusInternalServerError)
		return
	}
	rr.writeJSONResponse(w, result)
}

// getYearlyStats handles GET /dashboard/stats/yearly
func (rr *Routes) getYearlyStats(w http.ResponseWriter, r *http.Request) {
	result, err := rr.stats.YearlyStats(r.Context())
	if err != nil {
		logger.Errorf("Failed to compute yearly stats: %v", err)
		rr.writeErrorResponse(w, "failed to compute statistics", http.StatusInternalServerError)
		return
	}
	rr.writeJSONResponse(w, result)
}

// getLaunches handles GET /dashboard/launches with optional year and success
// filters. The year filter takes precedence when both are present.
func (rr *Routes) getLaunches(w http.ResponseWriter, r *http.Request) {
	filter := store.LaunchFilter{}

	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			rr.writeErrorResponse(w, "invalid year parameter", http.StatusBadRequest)
			return
		}
		filter.Year = &year
	}
	if v := r.URL.Query().Get("success"); v != "" {
		success, err := strconv.ParseBool(v)
		if err != nil {
			rr.writeErrorResponse(w, "invalid success parameter", http.StatusBadRequest)
			return
		}
		filter.Success = &success
	}

	page, err := parsePageRequest(r)
	if err != nil {
		rr.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := rr.store.ListLaunches(r.Context(), filter, page)
	if err != nil {
		logger.Errorf("Failed to list launches: %v", err)
		rr.writeErrorResponse(w, "failed to list launches", http.StatusInternalServerError)
		return
	}
	rr.writeJSONResponse(w, result)
}

// getLaunchByID handles GET /dashboard/launches/{id}
func (rr *Routes) getLaunchByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	launch, err := rr.store.FindLaunch(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rr.writeErrorResponse(w, "launch not found", http.StatusNotFound)
			return
		}
		logger.Errorf("Failed to fetch launch %s: %v", id, err)
		rr.writeErrorResponse(w, "failed to fetch launch", http.StatusInternalServerError)
		return
	}
	rr.writeJSONResponse(w, launch)
}

// resync handles POST /admin/resync
func (rr *Routes) resync(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	logger.Infof("Admin '%s' triggered resynchronization", identity.Email)

	count, err := rr.syncer.Synchronize(r.Context())
	if err != nil {
		logger.Errorf("Resynchronization failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ResyncResponse{
			Success: false,
			Message: "Synchronization failed: " + err.Error(),
		})
		return
	}

	rr.writeJSONResponse(w, ResyncResponse{
		Success:           true,
		Message:           "Synchronization completed successfully",
		LaunchesProcessed: count,
	})
}

func parsePageRequest(r *http.Request) (store.PageRequest, error) {
	page := store.PageRequest{Page: 0, Size: defaultPageSize}

	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page, errors.New("invalid page parameter")
		}
		page.Page = n
	}
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return page, errors.New("invalid size parameter")
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		page.Size = n
	}

	return page, nil
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		logger.Errorf("Failed to encode error response: %v", err)
	}
}
