package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/23skdu/miniviva/internal/grading"
	"github.com/23skdu/miniviva/internal/logger"
)

type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *logger.Logger
}

// NewRouter wires the grading form, the JSON API, the probes and /metrics.
func NewRouter(e *grading.Evaluator, opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logger.Log.With("http")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(NewLoggingMiddleware(opts.Logger).Middleware)

	r.Get("/health", HealthHandler(e))
	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(e))
	r.Get("/version", VersionHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Get("/", IndexHandler(e))
		r.Post("/", SubmitHandler(e))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Accept", "X-Requested-With"},
			MaxAge:         86400,
		}))
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Post("/evaluate", EvaluateHandler(e))
	})

	return r
}
