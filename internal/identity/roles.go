package identity

import (
	"fmt"
	"strings"

	"github.com/memhive/memhive/internal/catalog"
)

// Role is a principal's primary role. Agent-backed roles carry the same name
// as the agent they map to; the `_agent` suffix variant is accepted on input
// and normalized away.
type Role string

const (
	// RoleCMO is the single top-executive role.
	RoleCMO Role = "cmo"

	RoleMarketingManager    Role = "marketing_manager"
	RoleOperationsManager   Role = "operations_manager"
	RoleIntelligenceManager Role = "intelligence_manager"

	RoleSEO       Role = "seo"
	RoleContent   Role = "content"
	RoleSocial    Role = "social"
	RoleEmail     Role = "email"
	RoleOps       Role = "ops"
	RoleFinance   Role = "finance"
	RoleHR        Role = "hr"
	RoleAnalytics Role = "analytics"
	RoleResearch  Role = "research"

	// RoleEmployee has no department mapping and only the public-read
	// baseline.
	RoleEmployee Role = "employee"
)

var knownRoles = map[Role]struct{}{
	RoleCMO:                 {},
	RoleMarketingManager:    {},
	RoleOperationsManager:   {},
	RoleIntelligenceManager: {},
	RoleSEO:                 {},
	RoleContent:             {},
	RoleSocial:              {},
	RoleEmail:               {},
	RoleOps:                 {},
	RoleFinance:             {},
	RoleHR:                  {},
	RoleAnalytics:           {},
	RoleResearch:            {},
	RoleEmployee:            {},
}

// ParseRole validates and normalizes a role string, accepting the `_agent`
// suffix spelling for agent-backed roles.
func ParseRole(raw string) (Role, error) {
	candidate := Role(catalog.NormalizeAgentID(strings.ToLower(strings.TrimSpace(raw))))
	if _, ok := knownRoles[candidate]; !ok {
		return "", fmt.Errorf("identity: unknown role %q", raw)
	}
	return candidate, nil
}

// IsTopExecutive reports whether the role is the single top-executive role.
func (r Role) IsTopExecutive() bool {
	return r == RoleCMO
}

// IsManager reports whether the role manages a department. The CMO counts as
// manager-or-above everywhere a manager does.
func (r Role) IsManager() bool {
	switch r {
	case RoleMarketingManager, RoleOperationsManager, RoleIntelligenceManager:
		return true
	default:
		return false
	}
}

// AgentID returns the agent the role maps 1:1 to, or "" for roles with no
// agent backing (plain employees).
func (r Role) AgentID() string {
	if r == RoleEmployee {
		return ""
	}
	return string(r)
}

// GovernedDepartments lists the departments whose public collection the role
// may write by default. The CMO governs every department; a manager governs
// its own; an agent-backed role governs the department it belongs to.
func (r Role) GovernedDepartments(cat *catalog.Catalog) []string {
	if r.IsTopExecutive() {
		names := make([]string, 0)
		for _, dept := range cat.Departments() {
			names = append(names, dept.Name)
		}
		return names
	}
	agent := r.AgentID()
	if agent == "" {
		return nil
	}
	dept, ok := cat.DepartmentForAgent(agent)
	if !ok {
		return nil
	}
	return []string{dept.Name}
}
