package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/facilform-dev/facilform/internal/middleware"
	"github.com/facilform-dev/facilform/internal/middleware/metrics"
	"github.com/facilform-dev/facilform/internal/middleware/ratelimit"
	"github.com/facilform-dev/facilform/internal/session"
	"github.com/facilform-dev/facilform/internal/setup"
)

// New creates and configures the service router.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders(false, ""))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}))

	h := deps.Handler

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.HealthHandler)

	writeLimit := middleware.RateLimit(
		ratelimit.New(deps.Config.Public.SubmitRatePerSecond, deps.Config.Public.SubmitBurst, time.Hour),
		middleware.ClientIP,
	)

	// Form routes carry the session of the single active form instance.
	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(deps.Tokens, deps.Config.Public.SessionTTL))

		r.Get("/facilities/new", h.FormGetHandler)
		r.Get("/previews/{id}", h.PreviewGetHandler)

		r.Group(func(r chi.Router) {
			r.Use(writeLimit)

			r.Post("/facilities/new", h.FormPostHandler)
			r.Post("/facilities/new/location", h.LocationPostHandler)
			r.Post("/facilities/new/images", h.ImagesPostHandler)
			r.Post("/facilities/new/images/{id}/delete", h.ImageDeleteHandler)
		})
	})

	return r
}
