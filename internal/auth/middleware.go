package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// claimsKey is a context key for the authenticated operator.
type claimsKey struct{}

// ClaimsFromContext returns the validated claims from the request context.
// Returns nil if the request is not authenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	if c, ok := ctx.Value(claimsKey{}).(*Claims); ok {
		return c
	}
	return nil
}

// Middleware requires a bearer token on mutating API requests. Reads,
// non-API paths (healthz, readyz, metrics) and the WebSocket stream, which
// authenticates via query parameter, pass through. A nil service disables
// the check entirely.
func Middleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/v1/") ||
				strings.HasPrefix(r.URL.Path, "/api/v1/ws/") ||
				r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="qualitywatch"`)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIProblem{
		Type:   "https://qualitywatch.dev/problems/auth-error",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
