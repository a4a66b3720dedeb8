package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/memhive/memhive/internal/identity"
	"github.com/memhive/memhive/internal/shared"
)

func newTestMiddleware(t *testing.T) Middleware {
	t.Helper()
	g, _ := newTestGuards(t)
	return Middleware{Guards: g}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func doRequest(t *testing.T, h http.Handler, p *identity.Principal, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareRequireAuthenticated(t *testing.T) {
	m := newTestMiddleware(t)
	h := m.RequireAuthenticated(okHandler())

	rec := doRequest(t, h, nil, "/")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = doRequest(t, h, principal(identity.RoleSEO), "/")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddlewareRequireCMO(t *testing.T) {
	m := newTestMiddleware(t)
	h := m.RequireCMO(okHandler())

	rec := doRequest(t, h, principal(identity.RoleSEO), "/")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, h, principal(identity.RoleCMO), "/")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddlewareRequireManager(t *testing.T) {
	m := newTestMiddleware(t)
	h := m.RequireManager(okHandler())

	rec := doRequest(t, h, principal(identity.RoleContent), "/")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, h, principal(identity.RoleOperationsManager), "/")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddlewareRequireMemory(t *testing.T) {
	m := newTestMiddleware(t)

	r := chi.NewRouter()
	r.With(m.RequireMemory("name")).Get("/memory/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	p := principal(identity.RoleSEO, identity.RoleAssignment{AgentID: "seo"})

	rec := doRequest(t, r, p, "/memory/public_marketing")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, r, p, "/memory/private_content")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, r, nil, "/memory/public_marketing")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRequireAgent(t *testing.T) {
	m := newTestMiddleware(t)
	h := m.RequireAgent("seo")(okHandler())

	rec := doRequest(t, h, principal(identity.RoleSEO, identity.RoleAssignment{AgentID: "seo_agent"}), "/")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, principal(identity.RoleContent, identity.RoleAssignment{AgentID: "content"}), "/")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
