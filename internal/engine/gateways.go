package engine

import (
	"context"

	"github.com/linknest/linknest/internal/domain"
)

// Store is the remote persistence gateway. Every call is a single
// request/response; the store holds no reconciliation state. Bulk calls
// are one batched request each, so failure is all-or-nothing.
type Store interface {
	List(ctx context.Context, ownerID string) ([]*domain.Bookmark, error)
	Create(ctx context.Context, ownerID string, fields *domain.Bookmark) (*domain.Bookmark, error)
	Update(ctx context.Context, id string, patch domain.BookmarkPatch) error
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) error
	BulkUpdateCategory(ctx context.Context, ids []string, category string) error
	BulkInsert(ctx context.Context, ownerID string, items []*domain.Bookmark) ([]*domain.Bookmark, error)
	IncrementClick(ctx context.Context, id string) error
}

// Classifier produces a category/tags/summary suggestion for a URL.
// Implementations must return within a bounded time or fail fast; the
// engine always has a deterministic fallback so classification is never
// required for correctness.
type Classifier interface {
	Classify(ctx context.Context, url, userTitle string) (*domain.Suggestion, error)
	Fallback(url, userTitle string) *domain.Suggestion
}

// Feed delivers realtime change notifications for one owner. The feed
// owns reconnect and backoff policy; the engine only consumes events.
type Feed interface {
	Subscribe(ctx context.Context, ownerID string, onEvent func(domain.FeedEvent)) (func(), error)
}

// NotificationKind labels engine notifications.
type NotificationKind string

const (
	NoteAdded           NotificationKind = "added"
	NoteUpdated         NotificationKind = "updated"
	NoteDeletedUndoable NotificationKind = "deleted_undoable"
	NoteRestored        NotificationKind = "restored"
	NoteError           NotificationKind = "error"
)

// Notification is pushed to the host on user-visible state changes so it
// can surface toasts. The engine never blocks on the callback.
type Notification struct {
	Kind     NotificationKind
	Bookmark *domain.Bookmark
	Err      error
}
