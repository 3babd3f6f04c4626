package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/linknest/linknest/internal/domain"
)

// ErrNotFound is returned when a bookmark id has no stored value.
var ErrNotFound = errors.New("bookmark not found")

// List retrieves all of an owner's bookmarks, most recent first.
func (s *Store) List(ctx context.Context, ownerID string) ([]*domain.Bookmark, error) {
	ids, err := s.client.SMembers(ctx, OwnerSetKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}

	if len(ids) == 0 {
		return []*domain.Bookmark{}, nil
	}

	bookmarks := make([]*domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		bookmark, err := s.Get(ctx, id)
		if err != nil {
			// Skip bookmarks that couldn't be retrieved
			continue
		}
		bookmarks = append(bookmarks, bookmark)
	}

	sort.Slice(bookmarks, func(i, j int) bool {
		return bookmarks[i].CreatedAt.After(bookmarks[j].CreatedAt)
	})
	return bookmarks, nil
}

// Get retrieves a single bookmark by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.Bookmark, error) {
	data, err := s.client.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	var bookmark domain.Bookmark
	if err := json.Unmarshal(data, &bookmark); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmark: %w", err)
	}
	return &bookmark, nil
}

// Create assigns a fresh id and creation timestamp, persists the
// bookmark and publishes the insert event.
func (s *Store) Create(ctx context.Context, ownerID string, fields *domain.Bookmark) (*domain.Bookmark, error) {
	bookmark := fields.Clone()
	bookmark.ID = uuid.NewString()
	bookmark.OwnerID = ownerID
	bookmark.CreatedAt = time.Now().UTC()

	if err := s.save(ctx, bookmark); err != nil {
		return nil, err
	}

	s.publish(ctx, ownerID, domain.EventInsert, bookmark)
	return bookmark, nil
}

// Update applies a partial update to a stored bookmark and publishes
// the resulting row as an update event.
func (s *Store) Update(ctx context.Context, id string, patch domain.BookmarkPatch) error {
	bookmark, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	patch.Apply(bookmark)
	if err := s.save(ctx, bookmark); err != nil {
		return err
	}

	s.publish(ctx, bookmark.OwnerID, domain.EventUpdate, bookmark)
	return nil
}

// Delete removes a bookmark and publishes the delete event. Deleting an
// unknown id is a no-op, not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	bookmark, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, BookmarkKey(id))
	pipe.SRem(ctx, OwnerSetKey(bookmark.OwnerID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	s.publish(ctx, bookmark.OwnerID, domain.EventDelete, &domain.Bookmark{ID: id, OwnerID: bookmark.OwnerID})
	return nil
}

// BulkDelete removes several bookmarks in one pipelined request.
func (s *Store) BulkDelete(ctx context.Context, ids []string) error {
	owners := make(map[string]string, len(ids))
	pipe := s.client.Pipeline()
	for _, id := range ids {
		bookmark, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		owners[id] = bookmark.OwnerID
		pipe.Del(ctx, BookmarkKey(id))
		pipe.SRem(ctx, OwnerSetKey(bookmark.OwnerID), id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to bulk delete bookmarks: %w", err)
	}

	for id, ownerID := range owners {
		s.publish(ctx, ownerID, domain.EventDelete, &domain.Bookmark{ID: id, OwnerID: ownerID})
	}
	return nil
}

// BulkUpdateCategory moves several bookmarks to one category in a
// single pipelined request.
func (s *Store) BulkUpdateCategory(ctx context.Context, ids []string, category string) error {
	updated := make([]*domain.Bookmark, 0, len(ids))
	pipe := s.client.Pipeline()
	for _, id := range ids {
		bookmark, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		bookmark.Category = category
		data, err := json.Marshal(bookmark)
		if err != nil {
			return fmt.Errorf("failed to marshal bookmark %s: %w", id, err)
		}
		pipe.Set(ctx, BookmarkKey(id), data, 0)
		updated = append(updated, bookmark)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to bulk update category: %w", err)
	}

	for _, bookmark := range updated {
		s.publish(ctx, bookmark.OwnerID, domain.EventUpdate, bookmark)
	}
	return nil
}

// BulkInsert persists a batch of new bookmarks in one pipelined request
// and returns the confirmed rows with their assigned ids.
func (s *Store) BulkInsert(ctx context.Context, ownerID string, items []*domain.Bookmark) ([]*domain.Bookmark, error) {
	now := time.Now().UTC()
	created := make([]*domain.Bookmark, 0, len(items))

	pipe := s.client.Pipeline()
	for _, item := range items {
		bookmark := item.Clone()
		bookmark.ID = uuid.NewString()
		bookmark.OwnerID = ownerID
		if bookmark.CreatedAt.IsZero() {
			bookmark.CreatedAt = now
		}

		data, err := json.Marshal(bookmark)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal bookmark %s: %w", bookmark.URL, err)
		}
		pipe.Set(ctx, BookmarkKey(bookmark.ID), data, 0)
		pipe.SAdd(ctx, OwnerSetKey(ownerID), bookmark.ID)
		created = append(created, bookmark)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to bulk insert bookmarks: %w", err)
	}

	for _, bookmark := range created {
		s.publish(ctx, ownerID, domain.EventInsert, bookmark)
	}
	return created, nil
}

// IncrementClick bumps the click counter. Best effort telemetry: the
// caller ignores failures.
func (s *Store) IncrementClick(ctx context.Context, id string) error {
	bookmark, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	bookmark.ClickCount++
	if err := s.save(ctx, bookmark); err != nil {
		return err
	}

	s.publish(ctx, bookmark.OwnerID, domain.EventUpdate, bookmark)
	return nil
}

// save writes the bookmark value and registers it in the owner set.
func (s *Store) save(ctx context.Context, bookmark *domain.Bookmark) error {
	data, err := json.Marshal(bookmark)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, BookmarkKey(bookmark.ID), data, 0)
	pipe.SAdd(ctx, OwnerSetKey(bookmark.OwnerID), bookmark.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save bookmark: %w", err)
	}
	return nil
}
