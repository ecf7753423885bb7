package promotions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/platform/httpx"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

// Handler exposes promotion endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		rbac:     rbac,
	}
}

func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	articleID, kind, ok := h.params(w, r)
	if !ok {
		return
	}
	var req GrantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	grant, err := h.service.Grant(r.Context(), shared.ActorFromContext(r.Context()), articleID, kind, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(grant))
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	articleID, kind, ok := h.params(w, r)
	if !ok {
		return
	}
	if err := h.service.Revoke(r.Context(), shared.ActorFromContext(r.Context()), articleID, kind); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	articleID, err := uuid.Parse(chi.URLParam(r, "articleID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "invalid article id")
		return
	}
	status, err := h.service.ActiveStatus(r.Context(), articleID)
	if err != nil {
		h.logger.Error("promotion status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

// ListActive serves the public read path consumed by front-page ordering.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	grants, err := h.service.ListActive(r.Context(), kind)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]*GrantResponse, len(grants))
	for i := range grants {
		out[i] = toResponse(&grants[i])
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"kind": kind, "grants": out})
}

func (h *Handler) params(w http.ResponseWriter, r *http.Request) (uuid.UUID, Kind, bool) {
	articleID, err := uuid.Parse(chi.URLParam(r, "articleID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "invalid article id")
		return uuid.Nil, "", false
	}
	return articleID, Kind(chi.URLParam(r, "kind")), true
}
