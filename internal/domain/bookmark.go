package domain

import "time"

// Bookmark represents a single saved link.
// A bookmark always belongs to exactly one owner and is either fully
// present with all required fields or absent, never partially built.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier.
	// Assigned by the store at creation time, never mutated.
	ID string `json:"id"`

	// OwnerID is the authenticated user owning this bookmark.
	OwnerID string `json:"owner_id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// Title is the display title. Never empty: falls back to the URL
	// when neither the user nor the classifier supplied one.
	Title string `json:"title"`

	// URL is the bookmarked address. Always a valid absolute URL.
	URL string `json:"url"`

	// Category is one of the fixed category set.
	// Empty is read as "Other" everywhere.
	Category string `json:"category,omitempty"`

	// Tags are lowercase labels attached by the user or the classifier.
	Tags []string `json:"tags,omitempty"`

	// Summary is optional free text produced by the classifier.
	Summary string `json:"summary,omitempty"`

	// ─────────────────────────────
	// User state
	// ─────────────────────────────

	// IsFavorite marks the bookmark as a favourite.
	IsFavorite bool `json:"is_favorite"`

	// IsPinned keeps the bookmark on top of every sort order.
	IsPinned bool `json:"is_pinned"`

	// ClickCount counts opens. Non-negative, best-effort telemetry.
	ClickCount int `json:"click_count"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is set once at creation.
	CreatedAt time.Time `json:"created_at"`
}

// EffectiveCategory returns the category, mapping empty to "Other".
func (b *Bookmark) EffectiveCategory() string {
	if b.Category == "" {
		return CategoryOther
	}
	return b.Category
}

// Clone returns a deep copy. The engine hands out clones so callers
// can never mutate the authoritative collection behind its back.
func (b *Bookmark) Clone() *Bookmark {
	if b == nil {
		return nil
	}
	cp := *b
	if b.Tags != nil {
		cp.Tags = make([]string, len(b.Tags))
		copy(cp.Tags, b.Tags)
	}
	return &cp
}

// ContentEqual reports whether two bookmarks carry the same content,
// field by field. Timestamps compare with time.Equal so location
// differences do not matter.
func ContentEqual(a, b *Bookmark) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.OwnerID != b.OwnerID ||
		a.Title != b.Title || a.URL != b.URL ||
		a.Category != b.Category || a.Summary != b.Summary ||
		a.IsFavorite != b.IsFavorite || a.IsPinned != b.IsPinned ||
		a.ClickCount != b.ClickCount || !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	if len(a.Tags) != len(b.Tags) {
		return false
	}
	for i := range a.Tags {
		if a.Tags[i] != b.Tags[i] {
			return false
		}
	}
	return true
}
