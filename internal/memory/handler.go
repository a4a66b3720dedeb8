// Package memory exposes the decision engine over HTTP: collection
// discovery, explicit access checks, and the guarded routes downstream
// stores mount behind.
package memory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/memhive/memhive/internal/access"
	"github.com/memhive/memhive/internal/catalog"
	"github.com/memhive/memhive/internal/guard"
	"github.com/memhive/memhive/internal/platform/httpx"
	"github.com/memhive/memhive/internal/shared"
)

// Handler serves the memory access API.
type Handler struct {
	logger    *slog.Logger
	engine    *access.Engine
	catalog   *catalog.Catalog
	guards    guard.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, engine *access.Engine, cat *catalog.Catalog, guards guard.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		engine:    engine,
		catalog:   cat,
		guards:    guards,
		validator: validator.New(),
	}
}

// MountRoutes registers memory routes. Everything requires authentication;
// collection routes additionally pass the memory gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guards.RequireAuthenticated)
	r.Get("/collections", h.listCollections)
	r.Post("/validate", h.validate)
	r.Route("/collections/{name}", func(r chi.Router) {
		r.Use(h.guards.RequireMemory("name"))
		r.Get("/", h.showCollection)
	})
}

type collectionInfo struct {
	Name       string `json:"name"`
	Scope      string `json:"scope"`
	Owner      string `json:"owner"`
	Department string `json:"department,omitempty"`
	CanRead    bool   `json:"can_read"`
	CanWrite   bool   `json:"can_write"`
}

// listCollections reports, for every collection the catalog knows about plus
// the caller's own private pools, what the caller may do with it.
func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFromContext(r.Context())

	candidates := make([]string, 0, 8)
	candidates = append(candidates, h.catalog.PublicCollections()...)
	for _, agentID := range p.AgentIDs() {
		if h.catalog.KnownAgent(agentID) {
			candidates = append(candidates, catalog.PrivateCollectionName(agentID))
		}
	}

	out := make([]collectionInfo, 0, len(candidates))
	for _, name := range candidates {
		ref := h.catalog.ParseCollection(name)
		canRead, _ := h.engine.Validate(p, name, access.Read)
		canWrite, _ := h.engine.Validate(p, name, access.Write)
		info := collectionInfo{
			Name:     ref.CanonicalName,
			Scope:    ref.Scope.String(),
			Owner:    ref.Owner,
			CanRead:  canRead,
			CanWrite: canWrite,
		}
		if ref.Scope == catalog.ScopePublic {
			info.Department = h.catalog.DisplayName(ref.Owner)
		}
		out = append(out, info)
	}
	httpx.JSON(w, http.StatusOK, out)
}

type validateRequest struct {
	Collection string `json:"collection" validate:"required"`
	AccessType string `json:"access_type" validate:"required,oneof=read write full"`
}

type validateResponse struct {
	Collection string `json:"collection"`
	AccessType string `json:"access_type"`
	Granted    bool   `json:"granted"`
	Reason     string `json:"reason"`
}

// validate answers an explicit access question without gating the response:
// a denial is a 200 with granted=false, mirroring the engine's no-error
// contract.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	accessType, err := access.ParseType(req.AccessType)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p := shared.PrincipalFromContext(r.Context())
	granted, reason := h.engine.Validate(p, req.Collection, accessType)
	httpx.JSON(w, http.StatusOK, validateResponse{
		Collection: req.Collection,
		AccessType: string(accessType),
		Granted:    granted,
		Reason:     reason,
	})
}

type collectionDetail struct {
	Name       string `json:"name"`
	Scope      string `json:"scope"`
	Owner      string `json:"owner"`
	Department string `json:"department,omitempty"`
	CanWrite   bool   `json:"can_write"`
}

// showCollection returns collection metadata for callers that already passed
// the read gate. The document payload itself lives in the external store.
func (h *Handler) showCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ref := h.catalog.ParseCollection(name)
	p := shared.PrincipalFromContext(r.Context())
	canWrite, _ := h.engine.Validate(p, name, access.Write)

	detail := collectionDetail{
		Name:     ref.CanonicalName,
		Scope:    ref.Scope.String(),
		Owner:    ref.Owner,
		CanWrite: canWrite,
	}
	if ref.Scope == catalog.ScopePublic {
		detail.Department = h.catalog.DisplayName(ref.Owner)
	}
	httpx.JSON(w, http.StatusOK, detail)
}
