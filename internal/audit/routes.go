package audit

import (
	"github.com/go-chi/chi/v5"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
)

// MountRoutes attaches the activity timeline. Reading other people's
// activity is a user-management concern, so it shares that gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(rbac.CapManageUsers))
		r.Get("/", h.Timeline)
	})
}
