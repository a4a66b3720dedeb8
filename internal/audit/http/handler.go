// Package audithttp serves the audit window to the top executive.
package audithttp

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memhive/memhive/internal/audit"
	"github.com/memhive/memhive/internal/guard"
	"github.com/memhive/memhive/internal/platform/httpx"
	"github.com/memhive/memhive/internal/shared"
)

// Handler exposes read and clear over the in-memory audit window.
type Handler struct {
	logger *slog.Logger
	log    *audit.Log
	guards guard.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, log *audit.Log, guards guard.Middleware) *Handler {
	return &Handler{logger: logger, log: log, guards: guards}
}

// MountRoutes registers audit routes; both are CMO-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guards.RequireCMO)
		r.Get("/", h.list)
		r.Delete("/", h.clear)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFromContext(r.Context())
	entries := h.log.Read(p)
	if entries == nil {
		entries = []audit.Entry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFromContext(r.Context())
	h.log.Clear(p)
	w.WriteHeader(http.StatusNoContent)
}
