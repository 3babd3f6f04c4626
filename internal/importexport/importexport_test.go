package importexport

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/linknest/linknest/internal/domain"
)

func TestParseWrappedDocument(t *testing.T) {
	data := []byte(`{
		"app": "LinkNest",
		"exportedAt": "2025-06-01T12:00:00Z",
		"count": 2,
		"bookmarks": [
			{"title": "Go", "url": "https://go.dev", "category": "Development", "tags": ["Go", "LANG"]},
			{"url": "https://example.com"}
		]
	}`)

	result := Parse(data)
	if len(result.Errors) != 0 {
		t.Fatalf("Parse() errors = %v, want none", result.Errors)
	}
	if len(result.Bookmarks) != 2 {
		t.Fatalf("Parse() returned %d bookmarks, want 2", len(result.Bookmarks))
	}

	first := result.Bookmarks[0]
	if first.Title != "Go" || first.Category != "Development" {
		t.Errorf("first bookmark = %+v", first)
	}
	// Tags come out normalized.
	if len(first.Tags) != 2 || first.Tags[0] != "go" || first.Tags[1] != "lang" {
		t.Errorf("first bookmark tags = %v, want [go lang]", first.Tags)
	}

	// A missing title falls back to the URL.
	if second := result.Bookmarks[1]; second.Title != "https://example.com" {
		t.Errorf("second bookmark title = %q, want the url", second.Title)
	}
}

func TestParseBareArray(t *testing.T) {
	data := []byte(`[{"title": "A", "url": "https://a.example.com"}]`)
	result := Parse(data)
	if len(result.Errors) != 0 {
		t.Fatalf("Parse() errors = %v, want none", result.Errors)
	}
	if len(result.Bookmarks) != 1 || result.Bookmarks[0].URL != "https://a.example.com" {
		t.Errorf("Parse() bookmarks = %+v", result.Bookmarks)
	}
}

func TestParseRejectsItemsWithoutURL(t *testing.T) {
	data := []byte(`[
		{"title": "no url"},
		{"title": "ok", "url": "https://ok.example.com"}
	]`)

	result := Parse(data)
	if len(result.Bookmarks) != 1 {
		t.Fatalf("Parse() returned %d bookmarks, want 1", len(result.Bookmarks))
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Item 1") {
		t.Errorf("Parse() errors = %v, want one error naming item 1", result.Errors)
	}
}

func TestParseInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "not json at all"},
		{name: "empty array", data: "[]"},
		{name: "wrapper without bookmarks", data: `{"app": "LinkNest"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse([]byte(tt.data))
			if len(result.Bookmarks) != 0 {
				t.Errorf("Parse() bookmarks = %+v, want none", result.Bookmarks)
			}
			if len(result.Errors) == 0 {
				t.Error("Parse() returned no error for invalid input")
			}
		})
	}
}

func TestExportIsPortable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	bookmarks := []*domain.Bookmark{
		{
			ID:         "internal-id",
			OwnerID:    "internal-owner",
			Title:      "Go",
			URL:        "https://go.dev",
			Category:   "Development",
			Tags:       []string{"go"},
			IsFavorite: true,
			ClickCount: 3,
			CreatedAt:  now.Add(-time.Hour),
		},
	}

	data, err := Export(bookmarks, now)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Export() produced invalid JSON: %v", err)
	}
	if doc.App != AppName || doc.Count != 1 || len(doc.Bookmarks) != 1 {
		t.Errorf("Export() document = %+v", doc)
	}
	if doc.ExportedAt != "2025-06-01T12:00:00Z" {
		t.Errorf("ExportedAt = %q, want RFC3339 UTC", doc.ExportedAt)
	}

	// Ids and owners never leave the installation.
	if strings.Contains(string(data), "internal-id") || strings.Contains(string(data), "internal-owner") {
		t.Errorf("export leaks internal identifiers: %s", data)
	}
}

func TestExportRoundTripsThroughParse(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	original := []*domain.Bookmark{
		{Title: "A", URL: "https://a.example.com", Category: "News", IsPinned: true, CreatedAt: now},
	}

	data, err := Export(original, now)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	result := Parse(data)
	if len(result.Errors) != 0 {
		t.Fatalf("Parse() errors = %v", result.Errors)
	}
	if len(result.Bookmarks) != 1 {
		t.Fatalf("Parse() returned %d bookmarks, want 1", len(result.Bookmarks))
	}
	got := result.Bookmarks[0]
	if got.Title != "A" || got.URL != "https://a.example.com" || got.Category != "News" || !got.IsPinned {
		t.Errorf("round trip changed content: %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("round trip changed CreatedAt: %v", got.CreatedAt)
	}
}
