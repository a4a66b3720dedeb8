package guard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memhive/memhive/internal/platform/httpx"
)

// Middleware adapts the gate layer for chi routers.
type Middleware struct {
	Guards *Guards
	Logger *slog.Logger
}

// RequireAuthenticated rejects anonymous requests with 401.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := m.Guards.RequireAuthenticated(r.Context()); err != nil {
			m.deny(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAgent gates a subtree on access to a fixed agent id.
func (m Middleware) RequireAgent(agentID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := m.Guards.RequireAgentAccess(r.Context(), agentID); err != nil {
				m.deny(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMemory gates a subtree on read access to the collection named by
// the given URL parameter.
func (m Middleware) RequireMemory(urlParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			collection := chi.URLParam(r, urlParam)
			if collection == "" {
				httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing collection name")
				return
			}
			if err := m.Guards.RequireMemoryAccess(r.Context(), collection); err != nil {
				m.deny(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireManager gates a subtree on manager-or-above.
func (m Middleware) RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.Guards.RequireManagerOrAbove(r.Context()); err != nil {
			m.deny(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCMO gates a subtree on the top-executive role.
func (m Middleware) RequireCMO(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.Guards.RequireTopExecutive(r.Context()); err != nil {
			m.deny(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) deny(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case errors.Is(err, ErrForbidden):
		var fe *ForbiddenError
		detail := ""
		if errors.As(err, &fe) {
			detail = fe.Reason
		}
		httpx.Problem(w, http.StatusForbidden, "Forbidden", detail)
	default:
		if m.Logger != nil {
			m.Logger.Error("guard middleware", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
