package middleware

import (
	"net"
	"net/http"

	"github.com/facilform-dev/facilform/internal/middleware/ratelimit"
)

// RateLimit throttles requests per client key.
func RateLimit(l *ratelimit.Limiter, keyFunc func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := keyFunc(r)
			if err != nil {
				http.Error(w, "Bad request", http.StatusBadRequest)
				return
			}
			if !l.Allow(key) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the real client IP from RemoteAddr.
// Does NOT trust X-Real-IP or X-Forwarded-For headers (no reverse proxy).
func ClientIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, use it directly
		return r.RemoteAddr, nil
	}
	return ip, nil
}
