package identity

import (
	"sort"
	"time"

	"github.com/memhive/memhive/internal/catalog"
)

// SystemActor is recorded as the grantor of assignments created at
// registration time.
const SystemActor = "system"

// DeriveDefaultAssignments computes the assignment set a freshly registered
// principal receives for its role. Every role gets read access to every
// department's public collection; write access covers exactly the public
// collections of the departments the role governs; roles backed by a single
// agent additionally get read and write on that agent's private collection.
//
// The derivation is deterministic: the same role and catalog always produce
// the same grant content (timestamps aside).
func DeriveDefaultAssignments(role Role, cat *catalog.Catalog) []RoleAssignment {
	reads := cat.PublicCollections()

	writes := make([]string, 0, 2)
	for _, dept := range role.GovernedDepartments(cat) {
		if d, ok := cat.Department(dept); ok {
			writes = append(writes, d.PublicCollection)
		}
	}

	agentID := role.AgentID()
	if agentID != "" && cat.KnownAgent(agentID) {
		private := catalog.PrivateCollectionName(agentID)
		reads = append(reads, private)
		writes = append(writes, private)
	}
	sort.Strings(reads)
	sort.Strings(writes)

	keyAgent := agentID
	if keyAgent == "" {
		// Roles with no agent backing still need an assignment to carry the
		// read baseline; the role name keys it and matches no department.
		keyAgent = string(role)
	}

	return []RoleAssignment{{
		AgentID:          catalog.NormalizeAgentID(keyAgent),
		AccessLevel:      defaultAccessLevel(role),
		ReadCollections:  reads,
		WriteCollections: writes,
		AssignedAt:       time.Now().UTC(),
		AssignedBy:       SystemActor,
	}}
}

func defaultAccessLevel(role Role) AccessLevel {
	switch {
	case role.IsTopExecutive():
		return AccessFull
	case role.IsManager():
		return AccessFull
	case role == RoleEmployee:
		return AccessRead
	default:
		return AccessLimited
	}
}
