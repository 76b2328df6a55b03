package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brandstudio/internal/http/handlers"
	"brandstudio/internal/middleware"
)

// NewRouter assembles the HTTP API. staticDir, when non-empty, is
// served under /static for filesystem-backed blob storage.
func NewRouter(app *handlers.App, staticDir string) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	if app.Config != nil && app.Config.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.CreateJob)
		r.Get("/{job_id}", app.JobStatus)
		r.Delete("/{job_id}", app.DeleteJob)
	})

	r.Route("/v1/businesses/{business_id}", func(r chi.Router) {
		r.Get("/jobs/pending", app.PendingJobs)
		r.Get("/assets", app.BusinessAssets)
		r.Get("/credits", app.CreditBalance)
	})

	if staticDir != "" {
		fs := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(staticDir)))
		r.Handle("/static/*", fs)
	}

	return r
}
