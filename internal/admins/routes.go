package admins

import (
	"github.com/go-chi/chi/v5"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
)

// MountRoutes attaches admin management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireActor())
		r.Get("/me/permissions", h.Permissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapManageUsers))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/{id}/suspend", h.Suspend)
		r.Post("/{id}/reactivate", h.Reactivate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapManageRoles))
		r.Post("/{id}/role", h.ChangeRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapResetOthersPassword))
		r.Post("/{id}/password", h.ResetPassword)
	})
}
