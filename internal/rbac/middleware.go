package rbac

import (
	"net/http"

	"log/slog"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/platform/httpx"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

// Middleware wires capability checks for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireCapability ensures the current actor's role grants all the given
// capabilities. A request without an actor is rejected as unauthorized
// rather than forbidden.
func (m Middleware) RequireCapability(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			if actor == nil {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			set := CapabilitiesFor(Role(actor.Role))
			for _, c := range caps {
				if !set.Has(c) {
					if m.Logger != nil {
						m.Logger.Warn("capability denied",
							slog.Int64("actor_id", actor.ID),
							slog.String("role", actor.Role),
							slog.String("capability", string(c)))
					}
					httpx.RespondError(w, shared.ErrForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireActor only checks that an authenticated actor is present. Used by
// routes whose capability decisions happen in the service layer.
func (m Middleware) RequireActor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shared.ActorFromContext(r.Context()) == nil {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
