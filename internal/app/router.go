package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/admins"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/articles"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/audit"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/observability"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/promotions"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config            *Config
	Middleware        MiddlewareConfig
	AdminsHandler     *admins.Handler
	ArticlesHandler   *articles.Handler
	PromotionsHandler *promotions.Handler
	AuditHandler      *audit.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router for the API surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(params.Middleware) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.AdminsHandler != nil {
		r.Route("/admins", params.AdminsHandler.MountRoutes)
	}
	if params.ArticlesHandler != nil {
		r.Route("/articles", params.ArticlesHandler.MountRoutes)
	}
	if params.PromotionsHandler != nil {
		r.Route("/promotions", params.PromotionsHandler.MountRoutes)
		r.Route("/public/promotions", params.PromotionsHandler.MountPublicRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
