package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/http/response"
	"github.com/roamtrails/tours-api/internal/service"
	"github.com/roamtrails/tours-api/pkg/logger"
)

type contextKey string

const userKey contextKey = "current_user"

// SessionCookie is the httpOnly cookie carrying the session token for
// browser clients; API clients use the Authorization header.
const SessionCookie = "jwt"

// Protect authenticates the request: bearer token (header or cookie) resolved
// to an active, non-stale user, which is then attached to the context.
func Protect(auth service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				response.Error(w, r, domain.ErrTokenInvalid)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				response.Error(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, logger.UserIDKey, user.ID.Hex())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RestrictTo authorizes the already-authenticated user against the
// endpoint's required role set.
func RestrictTo(roles ...string) func(http.Handler) http.Handler {
	required := domain.NewRoleSet(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				response.Error(w, r, domain.ErrTokenInvalid)
				return
			}
			if !required.Allows(user.Role) {
				response.Error(w, r, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the user resolved by Protect, nil outside of it.
func CurrentUser(r *http.Request) *domain.User {
	if user, ok := r.Context().Value(userKey).(*domain.User); ok {
		return user
	}
	return nil
}

// WithUser is a test seam for handlers that expect an authenticated request.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
