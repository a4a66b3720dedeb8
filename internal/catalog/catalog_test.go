package catalog

import (
	"testing"
)

func TestNewRejectsDuplicateAgents(t *testing.T) {
	_, err := New([]Department{
		{Name: "a", MemberAgentIDs: []string{"seo"}},
		{Name: "b", MemberAgentIDs: []string{"seo_agent"}},
	})
	if err == nil {
		t.Fatalf("expected error for agent claimed by two departments")
	}
}

func TestNewFillsCanonicalCollectionName(t *testing.T) {
	cat, err := New([]Department{{Name: "Growth", MemberAgentIDs: []string{"ads"}}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	dept, ok := cat.Department("growth")
	if !ok {
		t.Fatalf("department not found")
	}
	if dept.PublicCollection != "public_growth" {
		t.Fatalf("public collection: got %q", dept.PublicCollection)
	}
}

func TestDepartmentForAgent(t *testing.T) {
	cat := Default()
	dept, ok := cat.DepartmentForAgent("seo_agent")
	if !ok {
		t.Fatalf("expected seo_agent to resolve")
	}
	if dept.Name != "marketing" {
		t.Fatalf("department: got %q", dept.Name)
	}
	if _, ok := cat.DepartmentForAgent("nobody"); ok {
		t.Fatalf("expected unknown agent to miss")
	}
}

func TestCanonicalPublicNameResolvesAliases(t *testing.T) {
	cat := Default()
	if got := cat.CanonicalPublicName("marketing_memory"); got != "public_marketing" {
		t.Fatalf("alias: got %q", got)
	}
	if got := cat.CanonicalPublicName("PUBLIC_MKTG"); got != "public_marketing" {
		t.Fatalf("alias case: got %q", got)
	}
	if got := cat.CanonicalPublicName("public_marketing"); got != "public_marketing" {
		t.Fatalf("canonical passthrough: got %q", got)
	}
}

func TestHasMemberNormalizes(t *testing.T) {
	cat := Default()
	dept, _ := cat.Department("marketing")
	if !dept.HasMember("seo_agent") {
		t.Fatalf("expected suffixed spelling to count as member")
	}
	if dept.HasMember("hr") {
		t.Fatalf("hr is not a marketing member")
	}
}

func TestPublicCollectionsSorted(t *testing.T) {
	cat := Default()
	got := cat.PublicCollections()
	want := []string{"public_intelligence", "public_marketing", "public_operations"}
	if len(got) != len(want) {
		t.Fatalf("length: got %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
