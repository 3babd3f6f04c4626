package domain

import (
	"net/url"
	"strings"
)

// CategoryOther is the default category for anything unclassified.
const CategoryOther = "Other"

// Categories is the fixed category set. The classifier is prompted with
// exactly this list and the fallback map only ever produces values from it.
var Categories = []string{
	"Development",
	"Design",
	"News",
	"Social Media",
	"Video",
	"Music",
	"Shopping",
	"Finance",
	"Education",
	"Health",
	"Travel",
	"Food",
	"Sports",
	"Gaming",
	"Productivity",
	"Reference",
	"Entertainment",
	"Business",
	"Science",
	CategoryOther,
}

// IsKnownCategory reports whether cat is part of the fixed set.
func IsKnownCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// DomainCategories maps well-known domains to their category. Used as the
// deterministic classifier fallback; extendable at runtime via the
// domain-rules file.
var DomainCategories = map[string]string{
	"github.com":           "Development",
	"gitlab.com":           "Development",
	"stackoverflow.com":    "Development",
	"figma.com":            "Design",
	"dribbble.com":         "Design",
	"behance.net":          "Design",
	"medium.com":           "News",
	"news.ycombinator.com": "News",
	"twitter.com":          "Social Media",
	"x.com":                "Social Media",
	"instagram.com":        "Social Media",
	"reddit.com":           "Social Media",
	"linkedin.com":         "Social Media",
	"facebook.com":         "Social Media",
	"youtube.com":          "Video",
	"vimeo.com":            "Video",
	"spotify.com":          "Music",
	"soundcloud.com":       "Music",
	"amazon.com":           "Shopping",
	"ebay.com":             "Shopping",
	"etsy.com":             "Shopping",
	"netflix.com":          "Entertainment",
	"twitch.tv":            "Entertainment",
	"notion.so":            "Productivity",
	"chatgpt.com":          "Productivity",
	"chat.openai.com":      "Productivity",
	"google.com":           "Productivity",
	"wikipedia.org":        "Reference",
	"coursera.org":         "Education",
	"udemy.com":            "Education",
	"booking.com":          "Travel",
	"airbnb.com":           "Travel",
	"steampowered.com":     "Gaming",
}

// ExtractDomain returns the hostname of u without a leading "www.".
// Returns "" when u does not parse.
func ExtractDomain(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

// CategoryForDomain resolves a domain to a category using rules first,
// then the built-in map. Matching tries the exact domain, then suffix
// matches (so "gist.github.com" resolves through "github.com").
func CategoryForDomain(domain string, rules map[string]string) string {
	if domain == "" {
		return CategoryOther
	}
	if rules != nil {
		if cat, ok := rules[domain]; ok {
			return cat
		}
	}
	if cat, ok := DomainCategories[domain]; ok {
		return cat
	}
	for known, cat := range rules {
		if strings.HasSuffix(domain, "."+known) {
			return cat
		}
	}
	for known, cat := range DomainCategories {
		if strings.HasSuffix(domain, "."+known) {
			return cat
		}
	}
	return CategoryOther
}
