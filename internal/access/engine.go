// Package access implements the decision engine: given a principal, a
// collection name, and an access type it answers allow or deny with a
// human-readable reason, memoizing and auditing every verdict.
package access

import (
	"fmt"
	"log/slog"

	"github.com/memhive/memhive/internal/audit"
	"github.com/memhive/memhive/internal/catalog"
	"github.com/memhive/memhive/internal/identity"
)

// Type is the kind of access being requested.
type Type string

const (
	Read  Type = "read"
	Write Type = "write"
	Full  Type = "full"
)

// ParseType validates a raw access type string.
func ParseType(raw string) (Type, error) {
	switch Type(raw) {
	case Read, Write, Full:
		return Type(raw), nil
	default:
		return "", fmt.Errorf("access: unknown access type %q", raw)
	}
}

// Observer is notified of every computed or replayed decision; the metrics
// layer hooks in here.
type Observer func(scope catalog.Scope, granted bool)

// Engine computes access decisions against the department catalog.
type Engine struct {
	catalog  *catalog.Catalog
	cache    *DecisionCache
	audit    *audit.Log
	logger   *slog.Logger
	observer Observer
}

// NewEngine constructs an Engine. The cache and audit log are required; the
// logger may be nil.
func NewEngine(cat *catalog.Catalog, cache *DecisionCache, auditLog *audit.Log, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{catalog: cat, cache: cache, audit: auditLog, logger: logger}
}

// SetObserver installs a decision observer. Call before serving traffic.
func (e *Engine) SetObserver(obs Observer) {
	e.observer = obs
}

// Cache exposes the decision cache so assignment mutations can invalidate it.
func (e *Engine) Cache() *DecisionCache {
	return e.cache
}

// Validate decides whether the principal may perform the given access on the
// named collection. It never returns an error: every unexpected condition
// resolves to a deny with a diagnostic reason. Each call, cache hit or miss,
// appends one audit entry.
func (e *Engine) Validate(p *identity.Principal, collectionName string, access Type) (granted bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			granted = false
			reason = fmt.Sprintf("internal error: %v", r)
			e.logger.Error("access validate panic", slog.Any("panic", r), slog.String("collection", collectionName))
			e.audit.Record(p, collectionName, false, reason)
		}
	}()

	ref := e.catalog.ParseCollection(collectionName)

	if p == nil {
		reason = "no principal"
		e.record(p, collectionName, ref.Scope, false, reason)
		return false, reason
	}

	if d, ok := e.cache.Get(p.ID, collectionName, access); ok {
		e.record(p, collectionName, ref.Scope, d.Granted, d.Reason)
		return d.Granted, d.Reason
	}

	d := e.decide(p, ref, access)
	e.cache.Put(p.ID, collectionName, access, d)
	e.record(p, collectionName, ref.Scope, d.Granted, d.Reason)
	return d.Granted, d.Reason
}

func (e *Engine) record(p *identity.Principal, collection string, scope catalog.Scope, granted bool, reason string) {
	e.audit.Record(p, collection, granted, reason)
	if e.observer != nil {
		e.observer(scope, granted)
	}
}

func (e *Engine) decide(p *identity.Principal, ref catalog.CollectionRef, access Type) Decision {
	switch ref.Scope {
	case catalog.ScopePrivate:
		return e.decidePrivate(p, ref)
	case catalog.ScopePublic:
		return e.decidePublic(p, ref, access)
	default:
		return Decision{Granted: false, Reason: "unknown collection format"}
	}
}

// decidePrivate grants access when the principal holds an assignment for the
// owning agent. Read and write deliberately collapse to the same check:
// ownership of the agent is sufficient for both. The write sets on the
// assignment do not gate private collections.
func (e *Engine) decidePrivate(p *identity.Principal, ref catalog.CollectionRef) Decision {
	if _, ok := p.AssignmentFor(ref.Owner); ok {
		return Decision{
			Granted: true,
			Reason:  fmt.Sprintf("assignment for agent %q grants private access", ref.Owner),
		}
	}
	if e.ownerSharingEnabled(p, ref.Owner) {
		return Decision{
			Granted: true,
			Reason:  fmt.Sprintf("agent %q shares its private collection", ref.Owner),
		}
	}
	return Decision{
		Granted: false,
		Reason:  fmt.Sprintf("no assignment for agent %q", ref.Owner),
	}
}

// ownerSharingEnabled is the extension point for owner-controlled sharing of
// private collections. Sharing preferences are not modeled yet, so it always
// reports false.
func (e *Engine) ownerSharingEnabled(_ *identity.Principal, _ string) bool {
	return false
}

func (e *Engine) decidePublic(p *identity.Principal, ref catalog.CollectionRef, access Type) Decision {
	dept, ok := e.catalog.Department(ref.Owner)
	if !ok {
		return Decision{
			Granted: false,
			Reason:  fmt.Sprintf("no department configured for collection %q", ref.CanonicalName),
		}
	}

	members := make([]identity.RoleAssignment, 0, 1)
	for _, a := range p.Assignments {
		if dept.HasMember(a.AgentID) {
			members = append(members, a)
		}
	}
	if len(members) == 0 {
		return Decision{
			Granted: false,
			Reason:  fmt.Sprintf("no assignment belongs to department %q", dept.Name),
		}
	}

	if access == Read {
		return Decision{
			Granted: true,
			Reason:  fmt.Sprintf("department %q membership grants read", dept.Name),
		}
	}

	for _, a := range members {
		if e.assignmentGrantsWrite(a, dept) {
			return Decision{
				Granted: true,
				Reason:  fmt.Sprintf("assignment for agent %q holds write grant on %q", catalog.NormalizeAgentID(a.AgentID), dept.PublicCollection),
			}
		}
	}
	return Decision{
		Granted: false,
		Reason:  fmt.Sprintf("membership in %q grants read only; write to %q requires an explicit grant", dept.Name, dept.PublicCollection),
	}
}

// assignmentGrantsWrite checks the assignment's write set against the
// department's canonical public collection name, resolving legacy aliases
// through the catalog so every historical spelling of a grant still counts.
func (e *Engine) assignmentGrantsWrite(a identity.RoleAssignment, dept catalog.Department) bool {
	for _, collection := range a.WriteCollections {
		if e.catalog.CanonicalPublicName(collection) == dept.PublicCollection {
			return true
		}
	}
	return false
}
