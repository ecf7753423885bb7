package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/platform/httpx"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
)

// Handler exposes the activity timeline to administrators.
type Handler struct {
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{service: service, rbac: rbac}
}

func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func parseFilters(r *http.Request) (TimelineFilters, error) {
	q := r.URL.Query()
	filters := TimelineFilters{
		Entity: q.Get("entity"),
		Action: q.Get("action"),
	}
	var err error
	if filters.Page, err = intParam(q.Get("page")); err != nil {
		return filters, err
	}
	if filters.PageSize, err = intParam(q.Get("page_size")); err != nil {
		return filters, err
	}
	if raw := q.Get("actor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filters, err
		}
		filters.ActorID = id
	}
	if filters.From, err = timeParam(q.Get("from")); err != nil {
		return filters, err
	}
	if filters.To, err = timeParam(q.Get("to")); err != nil {
		return filters, err
	}
	return filters, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func timeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
