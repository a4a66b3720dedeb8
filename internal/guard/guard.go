// Package guard exposes the named authorization gates protecting higher-level
// operations. Guards are composable, mutate nothing, and append one audit
// entry per evaluation.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/memhive/memhive/internal/access"
	"github.com/memhive/memhive/internal/audit"
	"github.com/memhive/memhive/internal/identity"
	"github.com/memhive/memhive/internal/shared"
)

// Guards bundles the decision engine and audit log behind the gate API.
type Guards struct {
	engine *access.Engine
	audit  *audit.Log
	logger *slog.Logger
}

// New constructs the gate layer.
func New(engine *access.Engine, auditLog *audit.Log, logger *slog.Logger) *Guards {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guards{engine: engine, audit: auditLog, logger: logger}
}

// RequireAuthenticated returns the current principal, or ErrUnauthenticated
// when the request carries none (or an inactive one).
func (g *Guards) RequireAuthenticated(ctx context.Context) (*identity.Principal, error) {
	p := shared.PrincipalFromContext(ctx)
	if p == nil || !p.IsActive {
		g.audit.Record(nil, "session", false, "no authenticated principal")
		return nil, ErrUnauthenticated
	}
	g.audit.Record(p, "session", true, "authenticated")
	return p, nil
}

// RequireAgentAccess fails unless the current principal holds an assignment
// for the given agent, under the usual suffix normalization.
func (g *Guards) RequireAgentAccess(ctx context.Context, agentID string) error {
	p, err := g.RequireAuthenticated(ctx)
	if err != nil {
		return err
	}
	resource := "agent:" + agentID
	if _, ok := p.AssignmentFor(agentID); !ok {
		reason := fmt.Sprintf("no assignment for agent %q", agentID)
		g.audit.Record(p, resource, false, reason)
		return forbidden(resource, reason)
	}
	g.audit.Record(p, resource, true, "agent assignment present")
	return nil
}

// RequireMemoryAccess fails unless the current principal may at least read
// the named collection. Callers that intend to write must validate WRITE
// explicitly through the engine.
func (g *Guards) RequireMemoryAccess(ctx context.Context, collectionName string) error {
	p, err := g.RequireAuthenticated(ctx)
	if err != nil {
		return err
	}
	resource := "memory:" + collectionName
	granted, reason := g.engine.Validate(p, collectionName, access.Read)
	g.audit.Record(p, resource, granted, reason)
	if !granted {
		return forbidden(resource, reason)
	}
	return nil
}

// RequireManagerOrAbove succeeds for department managers and the top
// executive.
func (g *Guards) RequireManagerOrAbove(ctx context.Context) error {
	p, err := g.RequireAuthenticated(ctx)
	if err != nil {
		return err
	}
	const resource = "role:manager"
	if !p.Role.IsManager() && !p.Role.IsTopExecutive() {
		reason := fmt.Sprintf("role %q is not manager or above", p.Role)
		g.audit.Record(p, resource, false, reason)
		return forbidden(resource, reason)
	}
	g.audit.Record(p, resource, true, "manager or above")
	return nil
}

// RequireTopExecutive succeeds only for the single top-executive role.
func (g *Guards) RequireTopExecutive(ctx context.Context) error {
	p, err := g.RequireAuthenticated(ctx)
	if err != nil {
		return err
	}
	const resource = "role:top-executive"
	if !p.Role.IsTopExecutive() {
		reason := fmt.Sprintf("role %q is not the top executive", p.Role)
		g.audit.Record(p, resource, false, reason)
		return forbidden(resource, reason)
	}
	g.audit.Record(p, resource, true, "top executive")
	return nil
}
