package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aki-13627/animalia/internal/domain"
	"github.com/aki-13627/animalia/internal/http/response"
	"github.com/aki-13627/animalia/internal/identity"
	"github.com/aki-13627/animalia/internal/security"
	"github.com/aki-13627/animalia/internal/service"
)

type contextKey string

const userContextKey contextKey = "auth_user"

// RequireAuth resolves the bearer credential (Authorization header first,
// accessToken cookie as the web fallback) into the local user and rejects
// the request otherwise. The three failure classes are distinct on
// purpose: a missing credential (401), a token that fails verification
// (403), and a verified token whose local user row is gone (404).
func RequireAuth(authSvc service.AuthServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractAccessToken(r)
			if token == "" {
				response.Error(w, r, http.StatusUnauthorized, "NO_CREDENTIAL", "no token provided", nil)
				return
			}

			user, err := authSvc.GetUserByAccessToken(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrUserRecordMissing):
					response.Error(w, r, http.StatusNotFound, "USER_NOT_FOUND", "no user for this session", nil)
				case errors.Is(err, identity.ErrInvalidToken):
					response.Error(w, r, http.StatusForbidden, "INVALID_OR_EXPIRED_TOKEN", "invalid or expired token", nil)
				default:
					response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to resolve user", nil)
				}
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractAccessToken pulls the credential off a request without verifying
// it.
func ExtractAccessToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return security.GetCookie(r, security.CookieAccessToken)
}

// UserFromContext returns the authenticated user attached by RequireAuth.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}
