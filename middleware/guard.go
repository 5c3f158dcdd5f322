package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/sessionauth"
)

type usernameContextKey struct{}

// UsernameFromContext returns the username RequireSession attached to ctx.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameContextKey{}).(string)
	return username, ok
}

// RequireSession rejects requests without a live session cookie with 401 and
// passes the owning username to next through the request context.
func RequireSession(engine *sessionauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			cookie, err := r.Cookie(engine.CookieName())
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			username, err := engine.Profile(r.Context(), cookie.Value)
			if err != nil {
				status := http.StatusUnauthorized
				if !errors.Is(err, sessionauth.ErrUnauthenticated) {
					status = http.StatusServiceUnavailable
				}
				http.Error(w, http.StatusText(status), status)
				return
			}

			ctx := context.WithValue(r.Context(), usernameContextKey{}, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
