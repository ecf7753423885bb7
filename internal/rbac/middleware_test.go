package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/platform/httpx"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) httpx.ProblemDetail {
	t.Helper()
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var pd httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
	return pd
}

func TestRequireCapabilityRespondsWithProblemDetails(t *testing.T) {
	m := Middleware{}
	protected := m.RequireCapability(CapHardDelete)(okHandler())

	// No actor at all: unauthorized.
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/articles/x", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	pd := decodeProblem(t, rec)
	assert.Equal(t, http.StatusUnauthorized, pd.Status)

	// Actor without the capability: forbidden.
	req := httptest.NewRequest(http.MethodDelete, "/articles/x", nil)
	req = req.WithContext(shared.ContextWithActor(req.Context(),
		&shared.Actor{ID: 1, Role: string(RoleEditor)}))
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	pd = decodeProblem(t, rec)
	assert.Equal(t, http.StatusForbidden, pd.Status)
}

func TestRequireActorRespondsWithProblemDetails(t *testing.T) {
	m := Middleware{}
	protected := m.RequireActor()(okHandler())

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/articles", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	decodeProblem(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/articles", nil)
	req = req.WithContext(shared.ContextWithActor(req.Context(),
		&shared.Actor{ID: 2, Role: string(RoleAdmin)}))
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
