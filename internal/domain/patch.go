package domain

// BookmarkPatch is a partial update sent to the remote store.
// Nil pointers leave the stored value untouched.
type BookmarkPatch struct {
	Title      *string
	URL        *string
	Category   *string
	Tags       *[]string
	IsFavorite *bool
	IsPinned   *bool
}

// Apply copies the set fields onto b.
func (p BookmarkPatch) Apply(b *Bookmark) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.URL != nil {
		b.URL = *p.URL
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Tags != nil {
		b.Tags = *p.Tags
	}
	if p.IsFavorite != nil {
		b.IsFavorite = *p.IsFavorite
	}
	if p.IsPinned != nil {
		b.IsPinned = *p.IsPinned
	}
}
