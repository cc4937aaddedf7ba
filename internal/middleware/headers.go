package middleware

import (
	"net/http"
)

// SecurityHeaders adds browser hardening headers to every response.
// isHTTPS: if true, adds Strict-Transport-Security header
// csp: Content-Security-Policy value (if empty, no CSP header is set)
func SecurityHeaders(isHTTPS bool, csp string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()

			// Clickjacking protection
			headers.Set("X-Frame-Options", "DENY")

			// Prevent MIME type sniffing
			headers.Set("X-Content-Type-Options", "nosniff")

			// Referrer policy for privacy
			headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// The form page needs geolocation; everything else stays off
			headers.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(self), payment=()")

			if csp != "" {
				headers.Set("Content-Security-Policy", csp)
			}

			// HSTS - only when using HTTPS
			if isHTTPS {
				headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
