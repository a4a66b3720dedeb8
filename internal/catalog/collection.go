package catalog

import "strings"

// Scope classifies a collection name.
type Scope int

const (
	// ScopeUnrecognized marks names that match no known collection format.
	ScopeUnrecognized Scope = iota
	// ScopePublic marks department-wide shared collections.
	ScopePublic
	// ScopePrivate marks single-agent collections.
	ScopePrivate
)

// String returns the scope label used in logs and metrics.
func (s Scope) String() string {
	switch s {
	case ScopePublic:
		return "public"
	case ScopePrivate:
		return "private"
	default:
		return "unrecognized"
	}
}

const (
	publicPrefix  = "public_"
	privatePrefix = "private_"
	agentSuffix   = "_agent"
)

// CollectionRef is the parsed form of a collection name. Owner holds the
// department name for public scope and the normalized agent id for private
// scope; it is empty for unrecognized names.
type CollectionRef struct {
	Scope         Scope
	Owner         string
	CanonicalName string
}

// NormalizeAgentID maps the spelling variants of an agent identifier to one
// canonical form. Identifiers may appear with or without the `_agent` suffix;
// both resolve to the bare id.
func NormalizeAgentID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimSuffix(id, agentSuffix)
}

// SameAgent reports whether two agent identifiers refer to the same agent
// once normalized.
func SameAgent(a, b string) bool {
	return NormalizeAgentID(a) == NormalizeAgentID(b)
}

// PublicCollectionName returns the canonical collection name for a
// department's shared pool.
func PublicCollectionName(department string) string {
	return publicPrefix + strings.ToLower(strings.TrimSpace(department))
}

// PrivateCollectionName returns the canonical collection name for an agent's
// private pool.
func PrivateCollectionName(agentID string) string {
	return privatePrefix + NormalizeAgentID(agentID)
}

// ParseCollection resolves a raw collection name into a CollectionRef. Parsing
// is pure and total: any name that is neither a known alias nor carries a
// public/private prefix comes back as ScopeUnrecognized.
func (c *Catalog) ParseCollection(name string) CollectionRef {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return CollectionRef{Scope: ScopeUnrecognized}
	}
	if canonical, ok := c.aliasCanonical[trimmed]; ok {
		trimmed = canonical
	}
	switch {
	case strings.HasPrefix(trimmed, publicPrefix):
		dept := strings.TrimPrefix(trimmed, publicPrefix)
		if dept == "" {
			return CollectionRef{Scope: ScopeUnrecognized}
		}
		return CollectionRef{Scope: ScopePublic, Owner: dept, CanonicalName: publicPrefix + dept}
	case strings.HasPrefix(trimmed, privatePrefix):
		agent := NormalizeAgentID(strings.TrimPrefix(trimmed, privatePrefix))
		if agent == "" {
			return CollectionRef{Scope: ScopeUnrecognized}
		}
		return CollectionRef{Scope: ScopePrivate, Owner: agent, CanonicalName: privatePrefix + agent}
	default:
		return CollectionRef{Scope: ScopeUnrecognized}
	}
}
