package promotions

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches admin-facing promotion routes. Capability gating is
// kind-dependent, so it happens in the service rather than per route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireActor())
		r.Get("/{articleID}", h.Status)
		r.Post("/{articleID}/{kind}", h.Grant)
		r.Delete("/{articleID}/{kind}", h.Revoke)
	})
}

// MountPublicRoutes attaches the unauthenticated read path.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/{kind}", h.ListActive)
}
