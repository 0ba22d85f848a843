package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "staffcalendar/internal/delivery/http/helpers"
	"staffcalendar/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

// SetUserID returns a context with the user ID set. Used by auth middleware.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID from the context, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// ContextIdentity reads the acting person from the request context.
type ContextIdentity struct{}

var _ domain.IdentityProvider = ContextIdentity{}

func (ContextIdentity) CurrentActor(ctx context.Context) (string, bool) {
	return UserIDFromContext(ctx)
}

// bearerToken extracts the token from the Authorization header. present is
// false when the header is absent; msg explains a malformed header.
func bearerToken(r *http.Request) (token string, present bool, msg string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false, "missing authorization header"
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", true, "invalid authorization format"
	}
	token = strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", true, "missing token"
	}
	return token, true, ""
}

// RequireAuth returns a wrapper that validates the Bearer token and sets the user ID in the request context.
// If the token is missing or invalid, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, _, msg := bearerToken(r)
			if msg != "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msg)
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			r = r.WithContext(SetUserID(r.Context(), userID))
			next(w, r)
		}
	}
}

// OptionalAuth lets anonymous requests through without a user ID. A header
// that is present but malformed or carries a bad token is still rejected with 401.
func OptionalAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	required := RequireAuth(verifier, logger)
	return func(next http.HandlerFunc) http.HandlerFunc {
		withUser := required(next)
		return func(w http.ResponseWriter, r *http.Request) {
			if _, present, _ := bearerToken(r); !present {
				next(w, r)
				return
			}
			withUser(w, r)
		}
	}
}
