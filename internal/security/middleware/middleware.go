package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/observability/metrics"
	"github.com/aswell/training-system/internal/security/auth"
)

type principalContextKey struct{}

// authExemptPaths skip token extraction entirely. /api/auth/me is not in the
// set: it needs an attached principal.
var authExemptPaths = map[string]bool{
	"/api/auth/register": true,
	"/api/auth/login":    true,
	"/api/auth/logout":   true,
	"/healthz":           true,
	"/readyz":            true,
	"/metrics":           true,
}

// JWTMiddleware authenticates each request: it extracts a bearer token,
// verifies it, re-fetches the live user record to catch post-issuance
// deactivation, and attaches the resulting Principal to the request context.
//
// A missing or non-bearer Authorization header is not a rejection; the
// request continues unauthenticated and downstream authorization denies it.
// Verification results are never cached across requests.
func JWTMiddleware(tm *auth.TokenManager, users domain.UserRepository, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || authExemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, err := auth.ExtractToken(header)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tm.Validate(tokenString)
			if err != nil {
				metrics.ObserveTokenVerification("invalid")
				respondUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, err := claims.SubjectID()
			if err != nil {
				metrics.ObserveTokenVerification("invalid")
				respondUnauthorized(w, "Invalid or expired token")
				return
			}

			// A still-unexpired token may belong to a user deactivated after
			// issuance; the live record decides.
			user, err := users.GetByID(userID)
			if err != nil || !user.Flag.IsActive() {
				if err != nil && !errors.Is(err, domain.ErrNotFound) {
					log.Error("user lookup failed during authentication",
						slog.String("user_id", userID.String()),
						slog.String("error", err.Error()),
					)
				} else {
					log.Warn("rejecting token for missing or inactive user",
						slog.String("user_id", userID.String()),
					)
				}
				metrics.ObserveTokenVerification("user_inactive")
				respondUnauthorized(w, "User not found or inactive")
				return
			}

			companyID, err := claims.CompanyUUID()
			if err != nil {
				metrics.ObserveTokenVerification("invalid")
				respondUnauthorized(w, "Invalid or expired token")
				return
			}

			// Display name and email come from the live record; tenant and
			// role claims from the verified token.
			principal := &auth.Principal{
				UserID:      userID,
				CompanyID:   companyID,
				CompanyName: claims.CompanyName,
				LoginID:     claims.LoginID,
				Name:        user.Name,
				Email:       user.Email,
				Roles:       claims.Roles,
			}

			metrics.ObserveTokenVerification("ok")
			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the authenticated principal, or nil when the
// request carried no valid token.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	if p, ok := ctx.Value(principalContextKey{}).(*auth.Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal attaches a principal to a context.
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  http.StatusUnauthorized,
		"error":   "Unauthorized",
		"message": message,
	})
}
