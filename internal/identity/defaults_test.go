package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memhive/memhive/internal/catalog"
)

func TestDeriveDefaultsBaselineReadsEveryPublicCollection(t *testing.T) {
	cat := catalog.Default()
	for _, role := range []Role{RoleCMO, RoleMarketingManager, RoleSEO, RoleEmployee} {
		assignments := DeriveDefaultAssignments(role, cat)
		require.Len(t, assignments, 1, "role %s", role)
		for _, public := range cat.PublicCollections() {
			assert.True(t, assignments[0].CanRead(public), "role %s should read %s", role, public)
		}
	}
}

func TestDeriveDefaultsAgentRole(t *testing.T) {
	cat := catalog.Default()
	assignments := DeriveDefaultAssignments(RoleSEO, cat)
	require.Len(t, assignments, 1)
	a := assignments[0]

	assert.Equal(t, "seo", a.AgentID)
	assert.Equal(t, SystemActor, a.AssignedBy)
	assert.True(t, a.CanWrite("public_marketing"), "agent writes its own department")
	assert.False(t, a.CanWrite("public_operations"), "agent does not write other departments")
	assert.True(t, a.CanRead("private_seo"))
	assert.True(t, a.CanWrite("private_seo"))
	assert.False(t, a.CanRead("private_content"), "no private grants for other agents")
}

func TestDeriveDefaultsManagerRole(t *testing.T) {
	cat := catalog.Default()
	a := DeriveDefaultAssignments(RoleOperationsManager, cat)[0]

	assert.True(t, a.CanWrite("public_operations"))
	assert.False(t, a.CanWrite("public_marketing"))
	assert.Equal(t, AccessFull, a.AccessLevel)
}

func TestDeriveDefaultsTopExecutiveWritesEverywhere(t *testing.T) {
	cat := catalog.Default()
	a := DeriveDefaultAssignments(RoleCMO, cat)[0]
	for _, public := range cat.PublicCollections() {
		assert.True(t, a.CanWrite(public), "cmo writes %s", public)
	}
	assert.True(t, a.CanWrite("private_cmo"))
}

func TestDeriveDefaultsEmployeeGetsBaselineOnly(t *testing.T) {
	cat := catalog.Default()
	a := DeriveDefaultAssignments(RoleEmployee, cat)[0]

	assert.Equal(t, "employee", a.AgentID)
	assert.Empty(t, a.WriteCollections)
	for _, c := range a.ReadCollections {
		assert.NotContains(t, c, "private_", "employee has no private grants")
	}
}

func TestDeriveDefaultsIdempotent(t *testing.T) {
	cat := catalog.Default()
	first := DeriveDefaultAssignments(RoleContent, cat)[0]
	second := DeriveDefaultAssignments(RoleContent, cat)[0]

	assert.Equal(t, first.AgentID, second.AgentID)
	assert.Equal(t, first.ReadCollections, second.ReadCollections)
	assert.Equal(t, first.WriteCollections, second.WriteCollections)
	assert.Equal(t, first.AccessLevel, second.AccessLevel)
}
