package users

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/memhive/memhive/internal/guard"
	"github.com/memhive/memhive/internal/identity"
	"github.com/memhive/memhive/internal/platform/httpx"
	"github.com/memhive/memhive/internal/shared"
)

// Handler manages principal administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guards    guard.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guards guard.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guards:    guards,
		validator: validator.New(),
	}
}

// MountRoutes registers principal routes. Listing is open to managers;
// mutations are reserved for the top executive.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guards.RequireManager)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guards.RequireCMO)
		r.Post("/", h.register)
		r.Put("/{id}/assignments", h.replaceAssignments)
		r.Post("/{id}/assignments", h.grantAssignment)
		r.Delete("/{id}/assignments/{agentID}", h.revokeAssignment)
		r.Delete("/{id}", h.deactivate)
	})
}

type principalResponse struct {
	ID          string               `json:"id"`
	Username    string               `json:"username"`
	Email       string               `json:"email"`
	Role        string               `json:"role"`
	IsActive    bool                 `json:"is_active"`
	Assignments []assignmentResponse `json:"assignments"`
}

type assignmentResponse struct {
	AgentID          string    `json:"agent_id"`
	AccessLevel      string    `json:"access_level"`
	ReadCollections  []string  `json:"read_collections"`
	WriteCollections []string  `json:"write_collections"`
	AssignedAt       time.Time `json:"assigned_at"`
	AssignedBy       string    `json:"assigned_by"`
}

func toResponse(p *identity.Principal) principalResponse {
	assignments := make([]assignmentResponse, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		assignments = append(assignments, assignmentResponse{
			AgentID:          a.AgentID,
			AccessLevel:      string(a.AccessLevel),
			ReadCollections:  a.ReadCollections,
			WriteCollections: a.WriteCollections,
			AssignedAt:       a.AssignedAt,
			AssignedBy:       a.AssignedBy,
		})
	}
	return principalResponse{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		Role:        string(p.Role),
		IsActive:    p.IsActive,
		Assignments: assignments,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principals, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list principals", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]principalResponse, 0, len(principals))
	for i := range principals {
		out = append(out, toResponse(&principals[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password, role)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(p))
}

type assignmentRequest struct {
	AgentID          string   `json:"agent_id" validate:"required"`
	AccessLevel      string   `json:"access_level" validate:"omitempty,oneof=full read limited"`
	ReadCollections  []string `json:"read_collections"`
	WriteCollections []string `json:"write_collections"`
}

func (h *Handler) grantAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	p, err := h.service.GrantAssignment(r.Context(), chi.URLParam(r, "id"), identity.RoleAssignment{
		AgentID:          req.AgentID,
		AccessLevel:      accessLevelOrDefault(req.AccessLevel),
		ReadCollections:  req.ReadCollections,
		WriteCollections: req.WriteCollections,
	}, actor.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) replaceAssignments(w http.ResponseWriter, r *http.Request) {
	var reqs []assignmentRequest
	if err := httpx.DecodeJSON(r, &reqs); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	assignments := make([]identity.RoleAssignment, 0, len(reqs))
	now := time.Now().UTC()
	for _, req := range reqs {
		if err := h.validator.Struct(req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		assignments = append(assignments, identity.RoleAssignment{
			AgentID:          req.AgentID,
			AccessLevel:      accessLevelOrDefault(req.AccessLevel),
			ReadCollections:  req.ReadCollections,
			WriteCollections: req.WriteCollections,
			AssignedAt:       now,
			AssignedBy:       actor.ID,
		})
	}
	p, err := h.service.ReplaceAssignments(r.Context(), chi.URLParam(r, "id"), assignments)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) revokeAssignment(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.RevokeAssignment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "agentID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func accessLevelOrDefault(level string) identity.AccessLevel {
	if level == "" {
		return identity.AccessLimited
	}
	return identity.AccessLevel(level)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "principal not found")
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "username or email already taken")
	default:
		h.logger.Error("users handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
