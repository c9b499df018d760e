package middlewares

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/mbolis/formie/config"
	"github.com/mbolis/formie/httpx"
)

type contextKey int

const userIDKey contextKey = iota

// Authenticated requires a valid bearer token and stores the caller's user
// id in the request context.
func Authenticated(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(cfg.TokenSecret, nil), identity).Handler(next)
	}
}

// Identify resolves the caller's identity when a bearer token is present,
// but lets anonymous requests through. Handlers downstream decide what an
// anonymous caller may do via the form's access control flags.
//
// The authorized branch is run against a response buffer so that a stale or
// garbage token degrades to anonymous instead of surfacing a 401.
func Identify(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authenticated := chi.Chain(oauth.Authorize(cfg.TokenSecret, nil), identity).Handler(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			buf := httpx.NewResponseBuffer()
			authenticated.ServeHTTP(buf, r)
			if buf.Status() == http.StatusUnauthorized {
				next.ServeHTTP(w, r)
				return
			}
			buf.Flush(w)
		})
	}
}

func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string)
		if ok {
			if id, err := strconv.ParseInt(claims["user_id"], 10, 64); err == nil {
				ctx := context.WithValue(r.Context(), userIDKey, id)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// UserID returns the authenticated caller's user id, if any.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
