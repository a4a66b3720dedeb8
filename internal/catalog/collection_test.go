package catalog

import "testing"

func TestNormalizeAgentID(t *testing.T) {
	cases := map[string]string{
		"seo":        "seo",
		"seo_agent":  "seo",
		" SEO_Agent": "seo",
		"cmo":        "cmo",
		"":           "",
	}
	for input, want := range cases {
		if got := NormalizeAgentID(input); got != want {
			t.Errorf("NormalizeAgentID(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSameAgent(t *testing.T) {
	if !SameAgent("seo", "seo_agent") {
		t.Fatalf("expected seo and seo_agent to match")
	}
	if !SameAgent("SEO_AGENT", "seo") {
		t.Fatalf("expected normalization to be case insensitive")
	}
	if SameAgent("seo", "content") {
		t.Fatalf("expected distinct agents not to match")
	}
}

func TestCollectionNames(t *testing.T) {
	if got := PublicCollectionName("Marketing"); got != "public_marketing" {
		t.Fatalf("public name: got %q", got)
	}
	if got := PrivateCollectionName("seo_agent"); got != "private_seo" {
		t.Fatalf("private name: got %q", got)
	}
}

func TestParseCollection(t *testing.T) {
	cat := Default()

	tests := []struct {
		name      string
		input     string
		scope     Scope
		owner     string
		canonical string
	}{
		{"public", "public_marketing", ScopePublic, "marketing", "public_marketing"},
		{"public mixed case", " Public_Marketing ", ScopePublic, "marketing", "public_marketing"},
		{"private", "private_seo", ScopePrivate, "seo", "private_seo"},
		{"private with suffix", "private_seo_agent", ScopePrivate, "seo", "private_seo"},
		{"legacy alias", "marketing_memory", ScopePublic, "marketing", "public_marketing"},
		{"garbage", "garbage_name", ScopeUnrecognized, "", ""},
		{"empty", "", ScopeUnrecognized, "", ""},
		{"bare prefix", "public_", ScopeUnrecognized, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ref := cat.ParseCollection(tc.input)
			if ref.Scope != tc.scope {
				t.Fatalf("scope: got %v, want %v", ref.Scope, tc.scope)
			}
			if ref.Owner != tc.owner {
				t.Fatalf("owner: got %q, want %q", ref.Owner, tc.owner)
			}
			if ref.CanonicalName != tc.canonical {
				t.Fatalf("canonical: got %q, want %q", ref.CanonicalName, tc.canonical)
			}
		})
	}
}
