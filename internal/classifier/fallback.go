package classifier

import (
	"fmt"
	"strings"

	"github.com/linknest/linknest/internal/domain"
)

// Fallback builds a deterministic suggestion from the URL's domain
// alone: category from the domain map, the first domain label as a tag,
// a stock summary. Never fails, never touches the network.
func (g *Gateway) Fallback(rawURL, userTitle string) *domain.Suggestion {
	pageDomain := domain.ExtractDomain(rawURL)

	title := userTitle
	if title == "" {
		title = pageDomain
	}

	var tags []string
	if pageDomain != "" {
		tags = []string{strings.SplitN(pageDomain, ".", 2)[0]}
	}

	summary := ""
	if pageDomain != "" {
		summary = fmt.Sprintf("Bookmarked from %s", pageDomain)
	}

	return &domain.Suggestion{
		Category:       domain.CategoryForDomain(pageDomain, g.currentRules()),
		Tags:           tags,
		Summary:        summary,
		SuggestedTitle: title,
	}
}
