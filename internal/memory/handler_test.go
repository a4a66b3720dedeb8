package memory

import (
	"encoding/json"
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

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	auditLog := audit.NewLog(audit.DefaultCapacity)
	engine := access.NewEngine(catalog.Default(), access.NewDecisionCache(), auditLog, nil)
	guards := guard.Middleware{Guards: guard.New(engine, auditLog, nil)}
	h := NewHandler(nil, engine, catalog.Default(), guards)

	r := chi.NewRouter()
	r.Route("/memory", h.MountRoutes)
	return r
}

func seoPrincipal() *identity.Principal {
	return &identity.Principal{
		ID:       "u-alice",
		Username: "alice",
		Role:     identity.RoleSEO,
		IsActive: true,
		Assignments: []identity.RoleAssignment{{
			AgentID:          "seo",
			WriteCollections: []string{"public_marketing", "private_seo"},
		}},
	}
}

func doJSON(t *testing.T, r chi.Router, p *identity.Principal, method, target, body string) *httptest.ResponseRecorder {
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

func TestListCollections(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, seoPrincipal(), http.MethodGet, "/memory/collections", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []struct {
		Name     string `json:"name"`
		Scope    string `json:"scope"`
		CanRead  bool   `json:"can_read"`
		CanWrite bool   `json:"can_write"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	byName := make(map[string]struct {
		Scope    string
		CanRead  bool
		CanWrite bool
	}, len(out))
	for _, c := range out {
		byName[c.Name] = struct {
			Scope    string
			CanRead  bool
			CanWrite bool
		}{c.Scope, c.CanRead, c.CanWrite}
	}

	mkt, ok := byName["public_marketing"]
	require.True(t, ok)
	assert.Equal(t, "public", mkt.Scope)
	assert.True(t, mkt.CanRead)
	assert.True(t, mkt.CanWrite)

	ops, ok := byName["public_operations"]
	require.True(t, ok)
	assert.False(t, ops.CanRead, "not a member of operations")
	assert.False(t, ops.CanWrite)

	own, ok := byName["private_seo"]
	require.True(t, ok)
	assert.Equal(t, "private", own.Scope)
	assert.True(t, own.CanRead)
	assert.True(t, own.CanWrite)
}

func TestListCollectionsUnauthenticated(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, nil, http.MethodGet, "/memory/collections", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateEndpoint(t *testing.T) {
	r := newTestRouter(t)
	alice := seoPrincipal()

	rec := doJSON(t, r, alice, http.MethodPost, "/memory/validate",
		`{"collection":"public_marketing","access_type":"write"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Granted bool   `json:"granted"`
		Reason  string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Granted)

	// Denials stay 200: the endpoint answers the question, it does not gate.
	rec = doJSON(t, r, alice, http.MethodPost, "/memory/validate",
		`{"collection":"private_content","access_type":"read"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Granted)
	assert.NotEmpty(t, resp.Reason)
}

func TestValidateEndpointRejectsBadInput(t *testing.T) {
	r := newTestRouter(t)
	alice := seoPrincipal()

	rec := doJSON(t, r, alice, http.MethodPost, "/memory/validate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, alice, http.MethodPost, "/memory/validate",
		`{"collection":"public_marketing","access_type":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, alice, http.MethodPost, "/memory/validate",
		`{"access_type":"read"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowCollectionGated(t *testing.T) {
	r := newTestRouter(t)
	alice := seoPrincipal()

	rec := doJSON(t, r, alice, http.MethodGet, "/memory/collections/public_marketing", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Name       string `json:"name"`
		Department string `json:"department"`
		CanWrite   bool   `json:"can_write"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "public_marketing", detail.Name)
	assert.Equal(t, "Marketing", detail.Department)
	assert.True(t, detail.CanWrite)

	rec = doJSON(t, r, alice, http.MethodGet, "/memory/collections/private_content", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
