package auth

import (
	"context"
	"errors"
	"net/http"

	"ms-turnos/internal/utils"
)

type contextKey string

const usernameKey contextKey = "username"

// Middleware puts the session username into the request context when the
// request carries a valid session. It never rejects a request.
func (s *Sessions) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := s.Username(r)
			if err != nil {
				if !errors.Is(err, ErrNoSession) {
					s.Clear(w)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
		})
	}
}

// RequireSession redirects anonymous requests to loginPath.
func RequireSession(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Username(r.Context()) == "" {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPISession answers 401 JSON instead of redirecting. Preflight
// requests pass through.
func RequireAPISession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions && Username(r.Context()) == "" {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authentication required", "no valid session"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// Username returns the authenticated staff user, or "".
func Username(ctx context.Context) string {
	if name, ok := ctx.Value(usernameKey).(string); ok {
		return name
	}
	return ""
}
