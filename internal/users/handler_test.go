package users

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memhive/memhive/internal/access"
	"github.com/memhive/memhive/internal/audit"
	"github.com/memhive/memhive/internal/catalog"
	"github.com/memhive/memhive/internal/guard"
	"github.com/memhive/memhive/internal/identity"
	"github.com/memhive/memhive/internal/shared"
)

func newTestHandler(t *testing.T) (chi.Router, *Service) {
	t.Helper()
	auditLog := audit.NewLog(audit.DefaultCapacity)
	cache := access.NewDecisionCache()
	engine := access.NewEngine(catalog.Default(), cache, auditLog, nil)
	guards := guard.Middleware{Guards: guard.New(engine, auditLog, nil)}

	svc := NewService(newMemoryRepository(), cache, catalog.Default(), nil)
	h := NewHandler(slog.Default(), svc, guards)

	r := chi.NewRouter()
	r.Route("/principals", h.MountRoutes)
	return r, svc
}

func asPrincipal(role identity.Role) *identity.Principal {
	return &identity.Principal{ID: "actor-" + string(role), Username: string(role), Role: role, IsActive: true}
}

func send(t *testing.T, r chi.Router, p *identity.Principal, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpointCMOOnly(t *testing.T) {
	r, _ := newTestHandler(t)
	body := `{"username":"alice","email":"alice@memhive.io","password":"hunter2hunter2","role":"seo_agent"}`

	rec := send(t, r, asPrincipal(identity.RoleMarketingManager), http.MethodPost, "/principals/", body)
	assert.Equal(t, http.StatusForbidden, rec.Code, "managers cannot register principals")

	rec = send(t, r, asPrincipal(identity.RoleCMO), http.MethodPost, "/principals/", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp principalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "seo", resp.Role, "role normalized from the suffixed spelling")
	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, "seo", resp.Assignments[0].AgentID)
}

func TestRegisterEndpointValidation(t *testing.T) {
	r, _ := newTestHandler(t)
	cmo := asPrincipal(identity.RoleCMO)

	rec := send(t, r, cmo, http.MethodPost, "/principals/",
		`{"username":"alice","email":"not-an-email","password":"hunter2hunter2","role":"seo"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(t, r, cmo, http.MethodPost, "/principals/",
		`{"username":"alice","email":"alice@memhive.io","password":"hunter2hunter2","role":"wizard"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	r, _ := newTestHandler(t)
	cmo := asPrincipal(identity.RoleCMO)
	body := `{"username":"alice","email":"alice@memhive.io","password":"hunter2hunter2","role":"seo"}`

	rec := send(t, r, cmo, http.MethodPost, "/principals/", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = send(t, r, cmo, http.MethodPost, "/principals/", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListManagerOrAbove(t *testing.T) {
	r, _ := newTestHandler(t)

	rec := send(t, r, asPrincipal(identity.RoleSEO), http.MethodGet, "/principals/", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, r, asPrincipal(identity.RoleMarketingManager), http.MethodGet, "/principals/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGrantAndRevokeAssignmentEndpoints(t *testing.T) {
	r, svc := newTestHandler(t)
	cmo := asPrincipal(identity.RoleCMO)

	p, err := svc.Register(t.Context(), "alice", "alice@memhive.io", "hunter2hunter2", identity.RoleSEO)
	require.NoError(t, err)

	rec := send(t, r, cmo, http.MethodPost, "/principals/"+p.ID+"/assignments",
		`{"agent_id":"content_agent","write_collections":["marketing_memory"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp principalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Assignments, 2)

	rec = send(t, r, cmo, http.MethodDelete, "/principals/"+p.ID+"/assignments/content", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Assignments, 1)

	rec = send(t, r, cmo, http.MethodDelete, "/principals/missing/assignments/content", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeactivateEndpoint(t *testing.T) {
	r, svc := newTestHandler(t)
	cmo := asPrincipal(identity.RoleCMO)

	p, err := svc.Register(t.Context(), "alice", "alice@memhive.io", "hunter2hunter2", identity.RoleSEO)
	require.NoError(t, err)

	rec := send(t, r, cmo, http.MethodDelete, "/principals/"+p.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	got, err := svc.Get(t.Context(), p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}
