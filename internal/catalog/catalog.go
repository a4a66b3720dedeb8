// Package catalog holds the immutable department/agent configuration and the
// collection naming rules built on top of it.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Department is a static catalog entry grouping related agents behind one
// shared memory collection.
type Department struct {
	Name             string   `json:"name"`
	PublicCollection string   `json:"public_collection"`
	Aliases          []string `json:"aliases,omitempty"`
	MemberAgentIDs   []string `json:"member_agent_ids"`
}

// HasMember reports whether the given agent id (normalized) belongs to the
// department.
func (d Department) HasMember(agentID string) bool {
	normalized := NormalizeAgentID(agentID)
	for _, member := range d.MemberAgentIDs {
		if NormalizeAgentID(member) == normalized {
			return true
		}
	}
	return false
}

// Catalog is loaded once at process start and shared read-only afterwards.
type Catalog struct {
	departments    map[string]Department
	agentDept      map[string]string
	aliasCanonical map[string]string
	names          []string
	titler         cases.Caser
}

// New builds a Catalog from department entries, resolving legacy collection
// aliases to canonical names up front.
func New(departments []Department) (*Catalog, error) {
	c := &Catalog{
		departments:    make(map[string]Department, len(departments)),
		agentDept:      make(map[string]string),
		aliasCanonical: make(map[string]string),
		titler:         cases.Title(language.English),
	}
	for _, dept := range departments {
		name := strings.ToLower(strings.TrimSpace(dept.Name))
		if name == "" {
			return nil, fmt.Errorf("catalog: department with empty name")
		}
		if _, exists := c.departments[name]; exists {
			return nil, fmt.Errorf("catalog: duplicate department %q", name)
		}
		if dept.PublicCollection == "" {
			dept.PublicCollection = PublicCollectionName(name)
		}
		dept.Name = name
		for _, agent := range dept.MemberAgentIDs {
			normalized := NormalizeAgentID(agent)
			if normalized == "" {
				return nil, fmt.Errorf("catalog: department %q has empty agent id", name)
			}
			if owner, taken := c.agentDept[normalized]; taken {
				return nil, fmt.Errorf("catalog: agent %q belongs to both %q and %q", normalized, owner, name)
			}
			c.agentDept[normalized] = name
		}
		for _, alias := range dept.Aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias == "" {
				continue
			}
			if canonical, taken := c.aliasCanonical[alias]; taken && canonical != dept.PublicCollection {
				return nil, fmt.Errorf("catalog: alias %q maps to multiple collections", alias)
			}
			c.aliasCanonical[alias] = dept.PublicCollection
		}
		c.departments[name] = dept
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c, nil
}

// LoadFile reads a department catalog from a JSON file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var departments []Department
	if err := json.Unmarshal(data, &departments); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(departments)
}

// Default returns the built-in crew layout.
func Default() *Catalog {
	c, err := New([]Department{
		{
			Name:           "marketing",
			Aliases:        []string{"marketing_memory", "public_mktg"},
			MemberAgentIDs: []string{"cmo", "marketing_manager", "seo", "content", "social", "email"},
		},
		{
			Name:           "operations",
			Aliases:        []string{"operations_memory"},
			MemberAgentIDs: []string{"operations_manager", "ops", "finance", "hr"},
		},
		{
			Name:           "intelligence",
			Aliases:        []string{"intelligence_memory", "public_insights"},
			MemberAgentIDs: []string{"intelligence_manager", "analytics", "research"},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Department looks up a department by name.
func (c *Catalog) Department(name string) (Department, bool) {
	dept, ok := c.departments[strings.ToLower(strings.TrimSpace(name))]
	return dept, ok
}

// DepartmentForAgent resolves the department owning the given agent id.
func (c *Catalog) DepartmentForAgent(agentID string) (Department, bool) {
	name, ok := c.agentDept[NormalizeAgentID(agentID)]
	if !ok {
		return Department{}, false
	}
	return c.departments[name], true
}

// Departments returns all departments ordered by name.
func (c *Catalog) Departments() []Department {
	out := make([]Department, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.departments[name])
	}
	return out
}

// PublicCollections returns the canonical public collection name of every
// department, ordered by department name.
func (c *Catalog) PublicCollections() []string {
	out := make([]string, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.departments[name].PublicCollection)
	}
	return out
}

// CanonicalPublicName maps a collection name, canonical or legacy alias, to
// the canonical public collection name. It returns the input lowercased when
// no alias applies.
func (c *Catalog) CanonicalPublicName(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := c.aliasCanonical[trimmed]; ok {
		return canonical
	}
	return trimmed
}

// KnownAgent reports whether the agent id belongs to any department.
func (c *Catalog) KnownAgent(agentID string) bool {
	_, ok := c.agentDept[NormalizeAgentID(agentID)]
	return ok
}

// DisplayName renders a department name for human-facing output.
func (c *Catalog) DisplayName(department string) string {
	return c.titler.String(strings.ReplaceAll(strings.ToLower(department), "_", " "))
}
