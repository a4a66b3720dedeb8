// Package identity defines principals, their role assignments, and the
// default grants derived from a role.
package identity

import (
	"sort"
	"time"

	"github.com/memhive/memhive/internal/catalog"
)

// AccessLevel describes how broadly an assignment lets a principal act as an
// agent.
type AccessLevel string

const (
	AccessFull    AccessLevel = "full"
	AccessRead    AccessLevel = "read"
	AccessLimited AccessLevel = "limited"
)

// RoleAssignment grants a principal the capability to act as one agent. A
// principal carries at most one assignment per agent id; re-assigning the
// same agent replaces the earlier grant.
type RoleAssignment struct {
	AgentID          string
	AccessLevel      AccessLevel
	ReadCollections  []string
	WriteCollections []string
	AssignedAt       time.Time
	AssignedBy       string
}

// CanRead reports whether the assignment's read set contains the collection.
func (a RoleAssignment) CanRead(collection string) bool {
	return containsCollection(a.ReadCollections, collection)
}

// CanWrite reports whether the assignment's write set contains the collection.
func (a RoleAssignment) CanWrite(collection string) bool {
	return containsCollection(a.WriteCollections, collection)
}

// Accessible returns the union of the read and write sets, sorted.
func (a RoleAssignment) Accessible() []string {
	seen := make(map[string]struct{}, len(a.ReadCollections)+len(a.WriteCollections))
	for _, c := range a.ReadCollections {
		seen[c] = struct{}{}
	}
	for _, c := range a.WriteCollections {
		seen[c] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func containsCollection(set []string, collection string) bool {
	for _, c := range set {
		if c == collection {
			return true
		}
	}
	return false
}

// Principal is a user whose access is being evaluated. Deactivation is a
// logical delete; the engine never hard-deletes principals.
type Principal struct {
	ID          string
	Username    string
	Email       string
	Role        Role
	IsActive    bool
	Assignments []RoleAssignment
	Metadata    map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssignmentFor returns the assignment matching the agent id under the
// `_agent` suffix normalization rule.
func (p *Principal) AssignmentFor(agentID string) (RoleAssignment, bool) {
	if p == nil {
		return RoleAssignment{}, false
	}
	for _, a := range p.Assignments {
		if catalog.SameAgent(a.AgentID, agentID) {
			return a, true
		}
	}
	return RoleAssignment{}, false
}

// SetAssignment adds the assignment, replacing any existing assignment for
// the same (normalized) agent id.
func (p *Principal) SetAssignment(a RoleAssignment) {
	for i, existing := range p.Assignments {
		if catalog.SameAgent(existing.AgentID, a.AgentID) {
			p.Assignments[i] = a
			return
		}
	}
	p.Assignments = append(p.Assignments, a)
}

// RemoveAssignment drops the assignment for the agent id. It reports whether
// an assignment was removed.
func (p *Principal) RemoveAssignment(agentID string) bool {
	for i, a := range p.Assignments {
		if catalog.SameAgent(a.AgentID, agentID) {
			p.Assignments = append(p.Assignments[:i], p.Assignments[i+1:]...)
			return true
		}
	}
	return false
}

// AgentIDs returns the normalized agent ids the principal can act as, sorted.
func (p *Principal) AgentIDs() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		out = append(out, catalog.NormalizeAgentID(a.AgentID))
	}
	sort.Strings(out)
	return out
}

// Display renders the principal for audit entries.
func (p *Principal) Display() string {
	if p == nil {
		return "anonymous"
	}
	return p.Username + " (" + string(p.Role) + ")"
}
