package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/givebase/settler/internal/metrics"
	"github.com/givebase/settler/internal/repository"
	"github.com/givebase/settler/internal/settlement"
)

// NewRouter creates the Chi router with the ops surface mounted.
func NewRouter(
	svc *settlement.Service,
	expenses *repository.ExpenseRepo,
	runs *repository.RunRepo,
	m *metrics.Metrics,
	log *slog.Logger,
) http.Handler {
	h := &Handlers{
		svc:      svc,
		expenses: expenses,
		runs:     runs,
		log:      log.With("component", "api"),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", m.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		// Runs.
		r.Post("/runs", h.TriggerRun)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)

		// Expenses.
		r.Get("/expenses", h.ListExpenses)

		// Exports.
		r.Post("/exports/retry", h.RetryExports)
	})

	return r
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
