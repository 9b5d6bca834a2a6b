package policy

import (
	"reflect"
	"testing"
)

func TestNewRegistry_DefaultCategories(t *testing.T) {
	r := NewRegistry()
	want := []string{"adult", "entertainment", "gaming", "news", "shopping", "social", "video"}

	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}

	social, ok := r.Get("social")
	if !ok {
		t.Fatal("expected social category")
	}
	if social.Name != "Social Media" || len(social.Domains) == 0 {
		t.Errorf("unexpected social category %+v", social)
	}
}

func TestRegistry_DomainsFor(t *testing.T) {
	r := NewRegistryWithCategories(
		Category{ID: "a", Domains: []string{"one.com", "two.com"}},
		Category{ID: "b", Domains: []string{"two.com", "three.com"}},
	)

	got, err := r.DomainsFor([]string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"one.com", "two.com", "three.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DomainsFor() = %v, want %v", got, want)
	}
}

func TestRegistry_DomainsFor_Unknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.DomainsFor([]string{"social", "bogus"}); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := map[string]string{
		"Example.com":                      "example.com",
		"https://www.YouTube.com/watch?v=": "youtube.com",
		"http://reddit.com/":               "reddit.com",
		"  www.x.com  ":                    "x.com",
		"web.whatsapp.com":                 "web.whatsapp.com",
	}

	for in, want := range tests {
		if got := NormalizeDomain(in); got != want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", in, got, want)
		}
	}
}
