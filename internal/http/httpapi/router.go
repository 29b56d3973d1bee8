package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"dreamapp/internal/http/handlers"
	"dreamapp/internal/middleware"
)

type Options struct {
	Logger          zerolog.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/generations", func(r chi.Router) {
		r.Post("/", app.Generate)
		r.Post("/status", app.GenerationStatus)
	})

	r.Route("/v1/businesses/{business_id}", func(r chi.Router) {
		r.Get("/artifacts", app.ListArtifacts)
		r.Post("/media", app.RegisterMedia)
		r.Get("/media", app.ListUnprocessedMedia)
	})

	r.Route("/v1/artifacts/{id}", func(r chi.Router) {
		r.Post("/schedule", app.ScheduleArtifact)
		r.Post("/discard", app.DiscardArtifact)
		r.Post("/feedback", app.ArtifactFeedback)
		r.Delete("/", app.DeleteArtifact)
	})

	return r
}
