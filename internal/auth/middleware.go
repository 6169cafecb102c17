package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/orbitalops/launchdash/internal/logger"
)

// RFC 6750 Section 3 error codes
const (
	// errorCodeInvalidRequest indicates the request is missing a required parameter,
	// includes an unsupported parameter or parameter value, or is otherwise malformed.
	errorCodeInvalidRequest = "invalid_request"

	// errorCodeInvalidToken indicates the access token provided is expired, revoked,
	// malformed, or invalid for other reasons.
	errorCodeInvalidToken = "invalid_token"
)

// defaultRealm is the protection space identifier
const defaultRealm = "launchdash"

type contextKey struct{}

var identityKey = contextKey{}

// IdentityFromContext returns the authenticated identity stored by Middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// ContextWithIdentity stores an identity on the context (exported for tests
// of downstream handlers).
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Middleware returns an HTTP middleware that authenticates bearer tokens and
// stores the caller identity in the request context.
func Middleware(ts *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r)
			if err != nil {
				logger.Warnf("Token extraction failed (remote=%s path=%s): %v",
					r.RemoteAddr, r.URL.Path, err)
				writeAuthError(w, http.StatusUnauthorized, errorCodeInvalidRequest,
					"missing or malformed authorization header")
				return
			}

			identity, err := ts.Validate(token)
			if err != nil {
				logger.Warnf("Token validation failed (remote=%s path=%s): %v",
					r.RemoteAddr, r.URL.Path, err)
				writeAuthError(w, http.StatusUnauthorized, errorCodeInvalidToken,
					"token validation failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole gates a route on the authenticated identity carrying role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || !identity.HasRole(role) {
				logger.Warnf("Access denied for '%s' to %s: missing role %s",
					identity.Email, r.URL.Path, role)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken pulls the token out of the Authorization header.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	prefix := TokenPrefix + " "
	if !strings.HasPrefix(header, prefix) {
		return "", fmt.Errorf("authorization header must use the %s scheme", TokenPrefix)
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", fmt.Errorf("authorization header carries no token")
	}
	return token, nil
}

// sanitizeHeaderValue removes characters that could enable header injection attacks.
func sanitizeHeaderValue(s string) string {
	if !strings.ContainsAny(s, "\r\n\"") {
		return s
	}
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// writeAuthError writes a JSON error response with an RFC 6750 compliant
// WWW-Authenticate header.
func writeAuthError(w http.ResponseWriter, status int, errCode, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(
		`Bearer realm="%s", error="%s", error_description="%s"`,
		defaultRealm, errCode, sanitizeHeaderValue(description)))
	w.WriteHeader(status)

	resp := struct {
		Error string `json:"error"`
	}{
		Error: description,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Errorf("Failed to encode error response: %v", err)
	}
}
