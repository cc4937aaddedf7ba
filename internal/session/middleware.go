package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const CookieName = "formSession"

type ctxKey struct{}

// Middleware makes sure every request carries a signed session id,
// minting one on first contact, and exposes it on the request context.
func Middleware(tokens TokenService, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sid string
			if cookie, err := r.Cookie(CookieName); err == nil {
				if s, err := tokens.DecodeToken(cookie.Value); err == nil {
					sid = s
				}
			}

			if sid == "" {
				sid = uuid.NewString()
				token, err := tokens.NewToken(sid)
				if err != nil {
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the session id stored by Middleware.
func FromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(ctxKey{}).(string)
	return sid, ok
}
