package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"radiocore/internal/http/handlers"
	"radiocore/internal/middleware"
)

// Options carries the router's cross-cutting configuration.
type Options struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	StaticDir       string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Auth(opts.JWTSecret),
			middleware.LanguageHint("", opts.CountryLookup),
		)

		r.Route("/v1/generate", func(r chi.Router) {
			r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).
				Post("/music", app.GenerateMusic)
			r.Post("/music/{job_id}/cancel", app.CancelGeneration)
			r.Get("/recent", app.RecentTracks)
		})

		r.Route("/v1/library", func(r chi.Router) {
			r.Get("/{id}/bundle", app.TrackBundle)
		})
	})

	return r
}
