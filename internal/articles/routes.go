package articles

import (
	"github.com/go-chi/chi/v5"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
)

// MountRoutes attaches article workflow routes. Submit and read stay open
// to any authenticated admin; ownership rules are enforced in the service.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireActor())
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/history", h.History)
		r.Post("/", h.Submit)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapApprove))
		r.Post("/{id}/review", h.Review)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapArchive))
		r.Post("/{id}/archive", h.Archive)
		r.Post("/{id}/restore", h.Restore)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapHardDelete))
		r.Delete("/{id}", h.Delete)
	})
}
