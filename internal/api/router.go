package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bcnelson/firewall-ddns/internal/api/handler"
	"github.com/bcnelson/firewall-ddns/internal/api/middleware"
	"github.com/bcnelson/firewall-ddns/internal/storage"
)

// NewPublicRouter creates the router for the update listener. Only /update
// exists; every other path and method gets a bare 400.
func NewPublicRouter(updateHandler *handler.UpdateHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)

	r.HandleFunc("/update", updateHandler.Update)

	r.NotFound(handler.BadRequest)
	r.MethodNotAllowed(handler.BadRequest)

	return r
}

// NewAdminRouter creates the router for the operator listener.
func NewAdminRouter(store storage.AuditStore, gatherer prometheus.Gatherer, apiKey string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(apiKey))

		eventHandler := handler.NewEventHandler(store)
		r.Get("/events", eventHandler.List)
	})

	return r
}
