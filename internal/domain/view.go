package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FilterKey selects which subset of the collection a view shows.
// "all", "favourites", or a literal category name.
type FilterKey = string

const (
	FilterAll        FilterKey = "all"
	FilterFavourites FilterKey = "favourites"
)

// SortKey selects the primary ordering of a view.
type SortKey string

const (
	SortNewest       SortKey = "newest"
	SortOldest       SortKey = "oldest"
	SortTitleAZ      SortKey = "title-az"
	SortTitleZA      SortKey = "title-za"
	SortMostVisited  SortKey = "most-visited"
	SortLeastVisited SortKey = "least-visited"
)

// ViewQuery bundles the filter inputs of a derived view.
type ViewQuery struct {
	Filter      FilterKey // "all", "favourites", or a category name
	TagFilter   string    // exact tag membership, "" disables
	SearchQuery string    // case-insensitive substring search, "" disables
}

// FilterBookmarks derives the filtered subset of a collection snapshot.
// Pure function: never mutates its input, recomputed on every change.
func FilterBookmarks(bookmarks []*Bookmark, q ViewQuery) []*Bookmark {
	result := bookmarks

	switch q.Filter {
	case FilterAll, "":
		// keep everything
	case FilterFavourites:
		result = keep(result, func(b *Bookmark) bool { return b.IsFavorite })
	default:
		result = keep(result, func(b *Bookmark) bool {
			return b.EffectiveCategory() == q.Filter
		})
	}

	if q.TagFilter != "" {
		result = keep(result, func(b *Bookmark) bool {
			for _, t := range b.Tags {
				if t == q.TagFilter {
					return true
				}
			}
			return false
		})
	}

	if needle := strings.TrimSpace(q.SearchQuery); needle != "" {
		needle = strings.ToLower(needle)
		result = keep(result, func(b *Bookmark) bool {
			return matchesSearch(b, needle)
		})
	}

	return result
}

// matchesSearch ORs a substring test across title, url, category,
// summary and tags.
func matchesSearch(b *Bookmark, needle string) bool {
	if strings.Contains(strings.ToLower(b.Title), needle) ||
		strings.Contains(strings.ToLower(b.URL), needle) ||
		strings.Contains(strings.ToLower(b.EffectiveCategory()), needle) ||
		strings.Contains(strings.ToLower(b.Summary), needle) {
		return true
	}
	for _, t := range b.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func keep(bookmarks []*Bookmark, pred func(*Bookmark) bool) []*Bookmark {
	out := make([]*Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if pred(b) {
			out = append(out, b)
		}
	}
	return out
}

// SortBookmarks returns a sorted copy of the snapshot. After the primary
// sort, pinned bookmarks are moved to the front with a stable partition,
// preserving relative order inside each of the pinned/unpinned groups.
func SortBookmarks(bookmarks []*Bookmark, key SortKey) []*Bookmark {
	sorted := make([]*Bookmark, len(bookmarks))
	copy(sorted, bookmarks)

	switch key {
	case SortNewest:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	case SortOldest:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		})
	case SortTitleAZ:
		c := newTitleCollator()
		sort.SliceStable(sorted, func(i, j int) bool {
			return c.CompareString(sorted[i].Title, sorted[j].Title) < 0
		})
	case SortTitleZA:
		c := newTitleCollator()
		sort.SliceStable(sorted, func(i, j int) bool {
			return c.CompareString(sorted[i].Title, sorted[j].Title) > 0
		})
	case SortMostVisited:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ClickCount > sorted[j].ClickCount
		})
	case SortLeastVisited:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ClickCount < sorted[j].ClickCount
		})
	}

	return partitionPinnedFirst(sorted)
}

// newTitleCollator builds a case-insensitive collator for title sorts.
// Collators are not safe for concurrent use, so each sort gets its own.
func newTitleCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

// partitionPinnedFirst is a stable partition, not a comparator
// tie-break, so the primary order inside each group is untouched.
func partitionPinnedFirst(bookmarks []*Bookmark) []*Bookmark {
	out := make([]*Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if b.IsPinned {
			out = append(out, b)
		}
	}
	for _, b := range bookmarks {
		if !b.IsPinned {
			out = append(out, b)
		}
	}
	return out
}

// CategoryCount is one entry of a grouped view.
type CategoryCount struct {
	Category string
	Count    int
}

// TagCount is one entry of the tag cloud.
type TagCount struct {
	Tag   string
	Count int
}

// ComputeCategories groups the snapshot by category, sorted by
// descending count. Ties break alphabetically so output is stable.
func ComputeCategories(bookmarks []*Bookmark) []CategoryCount {
	counts := make(map[string]int)
	for _, b := range bookmarks {
		counts[b.EffectiveCategory()]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ComputeTags counts every tag across the snapshot, sorted by
// descending count with alphabetical tie-break.
func ComputeTags(bookmarks []*Bookmark) []TagCount {
	counts := make(map[string]int)
	for _, b := range bookmarks {
		for _, t := range b.Tags {
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
