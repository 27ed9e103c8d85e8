package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmemory/internal/metrics"
)

// RouterConfig carries the router dependencies.
type RouterConfig struct {
	Memory  MemoryService
	Batch   BatchService // nil disables the batch routes
	Health  HealthService
	APIKeys []string
	Logger  *zap.Logger
}

// NewRouter builds the HTTP handler with middleware and routes.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	srv := NewServer(cfg.Memory, cfg.Batch, cfg.Health)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(log))
	r.Use(JSONRecoverer(log))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(cfg.APIKeys))

	r.Get("/health", srv.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/indexes", func(r chi.Router) {
		r.Get("/", srv.ListIndexes)
		r.Route("/{index}", func(r chi.Router) {
			r.Put("/", srv.CreateIndex)
			r.Delete("/", srv.DeleteIndex)
			r.Put("/records", srv.UpsertRecord)
			r.Post("/records/list", srv.ListRecords)
			r.Delete("/records/{id}", srv.DeleteRecord)
			if cfg.Batch != nil {
				r.Post("/records/batch", srv.BatchUpsert)
				r.Post("/records/delete", srv.BatchDelete)
			}
			r.Post("/search", srv.Search)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
	return r
}
