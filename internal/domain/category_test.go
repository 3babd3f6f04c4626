package domain

import "testing"

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "plain domain", url: "https://github.com/golang/go", want: "github.com"},
		{name: "www stripped", url: "https://www.youtube.com/watch?v=x", want: "youtube.com"},
		{name: "subdomain kept", url: "https://gist.github.com/abc", want: "gist.github.com"},
		{name: "port ignored", url: "http://localhost:8080/x", want: "localhost"},
		{name: "no host", url: "/relative/path", want: ""},
		{name: "unparsable", url: "http://exa mple.com/%zz", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDomain(tt.url); got != tt.want {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestCategoryForDomain(t *testing.T) {
	rules := map[string]string{
		"intranet.example.com": "Business",
		"github.com":           "Productivity", // override the built-in mapping
	}

	tests := []struct {
		name   string
		domain string
		rules  map[string]string
		want   string
	}{
		{name: "built-in exact match", domain: "youtube.com", want: "Video"},
		{name: "built-in suffix match", domain: "gist.github.com", want: "Development"},
		{name: "unknown domain", domain: "totally-unknown.example", want: CategoryOther},
		{name: "empty domain", domain: "", want: CategoryOther},
		{name: "rules exact match", domain: "intranet.example.com", rules: rules, want: "Business"},
		{name: "rules suffix match", domain: "wiki.intranet.example.com", rules: rules, want: "Business"},
		{name: "rules win over built-ins", domain: "github.com", rules: rules, want: "Productivity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryForDomain(tt.domain, tt.rules); got != tt.want {
				t.Errorf("CategoryForDomain(%q) = %q, want %q", tt.domain, got, tt.want)
			}
		})
	}
}

func TestIsKnownCategory(t *testing.T) {
	for _, cat := range Categories {
		if !IsKnownCategory(cat) {
			t.Errorf("IsKnownCategory(%q) = false, want true", cat)
		}
	}
	for _, cat := range []string{"", "development", "Memes"} {
		if IsKnownCategory(cat) {
			t.Errorf("IsKnownCategory(%q) = true, want false", cat)
		}
	}
}

func TestDomainCategoriesStayInsideFixedSet(t *testing.T) {
	for domain, cat := range DomainCategories {
		if !IsKnownCategory(cat) {
			t.Errorf("DomainCategories[%q] = %q, not in the fixed category set", domain, cat)
		}
	}
}
