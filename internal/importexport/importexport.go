package importexport

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linknest/linknest/internal/domain"
)

// AppName identifies export documents produced by this application.
const AppName = "LinkNest"

// Document is the wrapped export shape. Import also accepts a bare
// array of items; export always produces this wrapper.
type Document struct {
	App        string `json:"app"`
	ExportedAt string `json:"exportedAt"`
	Count      int    `json:"count"`
	Bookmarks  []Item `json:"bookmarks"`
}

// Item is one portable bookmark row. No id and no owner: export files
// move between accounts and installations.
type Item struct {
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Category   string    `json:"category,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	IsFavorite bool      `json:"is_favorite"`
	IsPinned   bool      `json:"is_pinned"`
	ClickCount int       `json:"click_count"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// ParseResult carries the valid rows and one error string per rejected
// item, mirroring what the UI shows the user.
type ParseResult struct {
	Bookmarks []*domain.Bookmark
	Errors    []string
}

// Parse accepts either the wrapped document or a bare array. Items
// without a url are skipped with a per-item error; everything else is
// normalized into bookmark field sets ready for a bulk insert.
func Parse(data []byte) ParseResult {
	items, err := decodeItems(data)
	if err != nil {
		return ParseResult{Errors: []string{err.Error()}}
	}
	if len(items) == 0 {
		return ParseResult{Errors: []string{
			"No bookmarks found. Expected a JSON array or { bookmarks: [...] }.",
		}}
	}

	var result ParseResult
	for i, item := range items {
		if item.URL == "" {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Item %d: missing or invalid \"url\".", i+1))
			continue
		}
		title := item.Title
		if title == "" {
			title = item.URL
		}
		result.Bookmarks = append(result.Bookmarks, &domain.Bookmark{
			Title:      title,
			URL:        item.URL,
			Category:   item.Category,
			Tags:       domain.NormalizeTags(item.Tags),
			Summary:    item.Summary,
			IsFavorite: item.IsFavorite,
			IsPinned:   item.IsPinned,
			ClickCount: item.ClickCount,
			CreatedAt:  item.CreatedAt,
		})
	}
	return result
}

func decodeItems(data []byte) ([]Item, error) {
	var bare []Item
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New("invalid JSON file")
	}
	return doc.Bookmarks, nil
}

// Export renders the wrapped document for a collection snapshot,
// dropping ids and owner so the file stays portable.
func Export(bookmarks []*domain.Bookmark, now time.Time) ([]byte, error) {
	items := make([]Item, 0, len(bookmarks))
	for _, b := range bookmarks {
		items = append(items, Item{
			Title:      b.Title,
			URL:        b.URL,
			Category:   b.Category,
			Tags:       b.Tags,
			Summary:    b.Summary,
			IsFavorite: b.IsFavorite,
			IsPinned:   b.IsPinned,
			ClickCount: b.ClickCount,
			CreatedAt:  b.CreatedAt,
		})
	}

	doc := Document{
		App:        AppName,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(items),
		Bookmarks:  items,
	}
	return json.MarshalIndent(doc, "", "  ")
}
