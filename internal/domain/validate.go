package domain

import (
	"net/url"
	"strings"
)

// ValidateURL checks that raw parses as an absolute URL with a host.
// Runs before any optimistic apply or remote call.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &ValidationError{Field: "url", Reason: "must not be empty"}
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "url", Reason: "not a valid URL"}
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return &ValidationError{Field: "url", Reason: "must be an absolute URL"}
	}
	return nil
}

// NormalizeTags lowercases, trims and dedupes tags, preserving the
// order in which each tag first appears.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// EffectiveTitle picks the display title for a new bookmark:
// user input wins, then the classifier suggestion, then the page
// title, then the URL itself.
func EffectiveTitle(userTitle, suggested, pageTitle, rawURL string) string {
	for _, candidate := range []string{userTitle, suggested, pageTitle} {
		if t := strings.TrimSpace(candidate); t != "" {
			return t
		}
	}
	return rawURL
}
