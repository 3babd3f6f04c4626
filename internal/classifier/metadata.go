package classifier

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	userAgent = "Mozilla/5.0 (compatible; LinkNest/1.0; +https://linknest.app)"

	// metadataMaxBody caps how much of a page is read for meta tags.
	metadataMaxBody = 512 * 1024
)

// PageMetadata is what the meta-tag scrape of a page yields. All fields
// may be empty; the classifier prompt degrades gracefully.
type PageMetadata struct {
	Title       string
	Description string
	SiteName    string
	Keywords    string
}

var (
	titleTagRe = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	// Meta tags come in both attribute orders.
	metaContentAfterRe  = regexp.MustCompile(`(?i)<meta[^>]+(?:property|name)=["']([^"']+)["'][^>]+content=["']([^"']+)`)
	metaContentBeforeRe = regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]+(?:property|name)=["']([^"']+)`)
)

// FetchPageMetadata GETs the page and scrapes title/description meta
// tags within the timeout. Never fails: an unreachable or unparsable
// page yields empty metadata.
func FetchPageMetadata(ctx context.Context, rawURL string, timeout time.Duration) PageMetadata {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return PageMetadata{}
	}
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return PageMetadata{}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, metadataMaxBody))
	if err != nil {
		return PageMetadata{}
	}
	return scrapeMetadata(string(body))
}

func scrapeMetadata(html string) PageMetadata {
	tags := make(map[string]string)
	for _, m := range metaContentAfterRe.FindAllStringSubmatch(html, -1) {
		name := strings.ToLower(m[1])
		if _, seen := tags[name]; !seen {
			tags[name] = m[2]
		}
	}
	for _, m := range metaContentBeforeRe.FindAllStringSubmatch(html, -1) {
		name := strings.ToLower(m[2])
		if _, seen := tags[name]; !seen {
			tags[name] = m[1]
		}
	}

	title := tags["og:title"]
	if title == "" {
		if m := titleTagRe.FindStringSubmatch(html); m != nil {
			title = strings.TrimSpace(m[1])
		}
	}

	description := tags["og:description"]
	if description == "" {
		description = tags["description"]
	}

	return PageMetadata{
		Title:       title,
		Description: description,
		SiteName:    tags["og:site_name"],
		Keywords:    tags["keywords"],
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
