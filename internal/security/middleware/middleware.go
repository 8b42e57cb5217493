package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/jobboard/internal/domain"
	"github.com/yourorg/jobboard/internal/observability/metrics"
	"github.com/yourorg/jobboard/internal/security/audit"
	"github.com/yourorg/jobboard/internal/security/auth"
	"github.com/yourorg/jobboard/internal/security/ratelimit"
)

type UserContextKey struct{}

// publicPath reports whether the path is reachable without identity.
func publicPath(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics", "/api/version":
		return true
	}
	return false
}

// AuthMiddleware authenticates every non-public request: the bearer token is
// verified and the synced local user record is attached to the context.
// CORS preflights carry no credentials and pass through untouched.
func AuthMiddleware(identity *auth.Identity, auditLog *audit.Logger, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// Websocket clients cannot set headers; accept ?token= there.
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" && strings.HasPrefix(r.URL.Path, "/ws/") {
				if token := r.URL.Query().Get("token"); token != "" {
					authHeader = "Bearer " + token
				}
			}

			user, err := identity.Authenticate(r.Context(), authHeader)
			if err != nil {
				metrics.ObserveAuthFailure(string(domain.KindOf(err)))
				status := http.StatusUnauthorized
				if domain.KindOf(err) == domain.KindInternal {
					status = http.StatusInternalServerError
					log.Error("authentication failed", slog.String("error", err.Error()))
				} else {
					auditLog.LogDenied(r.Context(), "", err.Error())
				}
				http.Error(w, `{"error":"`+err.Error()+`"}`, status)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware enforces the per-user request budget.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			userID := ""
			if u := GetUserFromContext(r.Context()); u != nil {
				userID = u.ID
			}

			allowed, err := limiter.Allow(r.Context(), userID)
			if err != nil {
				// Rate limiting is best-effort; a limiter outage must not
				// take the API down.
				log.Warn("rate limiter unavailable", slog.String("error", err.Error()))
				allowed = true
			}
			if !allowed {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records mutating requests before they are handled.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodOptions && !publicPath(r.URL.Path) {
				userID := ""
				if u := GetUserFromContext(r.Context()); u != nil {
					userID = u.ID
				}
				auditLog.LogAction(r.Context(), userID, strings.ToLower(r.Method), "api", r.URL.Path, "initiated")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext returns the authenticated user or nil.
func GetUserFromContext(ctx context.Context) *domain.User {
	if u := ctx.Value(UserContextKey{}); u != nil {
		return u.(*domain.User)
	}
	return nil
}
