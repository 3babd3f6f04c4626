package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/linknest/linknest/internal/domain"
	"github.com/linknest/linknest/internal/logger"
)

// fakeStore is an in-memory Store with switchable failure modes.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[string]*domain.Bookmark
	nextID  int
	deleted []string

	failCreate     bool
	failUpdate     bool
	failDelete     bool
	failBulk       bool
	failBulkInsert bool
	failIncrement  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*domain.Bookmark)}
}

func (s *fakeStore) List(_ context.Context, ownerID string) ([]*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Bookmark
	for _, b := range s.rows {
		if b.OwnerID == ownerID {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

func (s *fakeStore) Create(_ context.Context, ownerID string, fields *domain.Bookmark) (*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return nil, errors.New("create refused")
	}
	s.nextID++
	b := fields.Clone()
	b.ID = fmt.Sprintf("srv-%d", s.nextID)
	b.OwnerID = ownerID
	b.CreatedAt = time.Now().UTC()
	s.rows[b.ID] = b
	return b.Clone(), nil
}

func (s *fakeStore) Update(_ context.Context, id string, patch domain.BookmarkPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate {
		return errors.New("update refused")
	}
	if b, ok := s.rows[id]; ok {
		patch.Apply(b)
	}
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return errors.New("delete refused")
	}
	delete(s.rows, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) BulkDelete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failBulk {
		return errors.New("bulk delete refused")
	}
	for _, id := range ids {
		delete(s.rows, id)
		s.deleted = append(s.deleted, id)
	}
	return nil
}

func (s *fakeStore) BulkUpdateCategory(_ context.Context, ids []string, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failBulk {
		return errors.New("bulk category refused")
	}
	for _, id := range ids {
		if b, ok := s.rows[id]; ok {
			b.Category = category
		}
	}
	return nil
}

func (s *fakeStore) BulkInsert(_ context.Context, ownerID string, items []*domain.Bookmark) ([]*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failBulkInsert {
		return nil, errors.New("bulk insert refused")
	}
	out := make([]*domain.Bookmark, 0, len(items))
	for _, item := range items {
		s.nextID++
		b := item.Clone()
		b.ID = fmt.Sprintf("srv-%d", s.nextID)
		b.OwnerID = ownerID
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
		s.rows[b.ID] = b
		out = append(out, b.Clone())
	}
	return out, nil
}

func (s *fakeStore) IncrementClick(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIncrement {
		return errors.New("increment refused")
	}
	if b, ok := s.rows[id]; ok {
		b.ClickCount++
	}
	return nil
}

func (s *fakeStore) deletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.deleted))
	copy(out, s.deleted)
	return out
}

// fakeClassifier returns a canned suggestion, or an error to force the
// fallback path.
type fakeClassifier struct {
	suggestion *domain.Suggestion
	err        error
	calls      int
}

func (c *fakeClassifier) Classify(_ context.Context, url, userTitle string) (*domain.Suggestion, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.suggestion, nil
}

func (c *fakeClassifier) Fallback(url, userTitle string) *domain.Suggestion {
	return &domain.Suggestion{
		Category:       domain.CategoryForDomain(domain.ExtractDomain(url), nil),
		Tags:           []string{"fallback"},
		SuggestedTitle: userTitle,
	}
}

func newTestEngine(t *testing.T, store Store, cls Classifier) *Engine {
	t.Helper()
	if cls == nil {
		cls = &fakeClassifier{suggestion: &domain.Suggestion{Category: "Development"}}
	}
	return New(Options{
		OwnerID:    "owner-1",
		Store:      store,
		Classifier: cls,
		Logger:     logger.NewNop(),
		Grace:      time.Hour, // deferred deletes never fire unless a test wants them to
	})
}

func snapshotIDs(e *Engine) []string {
	snap := e.Snapshot()
	out := make([]string, len(snap))
	for i, b := range snap {
		out[i] = b.ID
	}
	return out
}

func TestAddRejectsInvalidURL(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	_, err := eng.Add(context.Background(), "title", "not a url", nil)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Add() error = %v, want *ValidationError", err)
	}
	if len(eng.Snapshot()) != 0 {
		t.Errorf("collection changed after rejected add: %v", snapshotIDs(eng))
	}
	if len(store.rows) != 0 {
		t.Errorf("store received a write for a rejected add")
	}
}

func TestAddIsNotOptimistic(t *testing.T) {
	store := newFakeStore()
	store.failCreate = true
	eng := newTestEngine(t, store, nil)

	_, err := eng.Add(context.Background(), "title", "https://example.com", nil)
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Add() error = %v, want *PersistenceError", err)
	}
	// Nothing was inserted ahead of confirmation, so nothing to roll back.
	if len(eng.Snapshot()) != 0 {
		t.Errorf("collection contains entries after failed add: %v", snapshotIDs(eng))
	}
}

func TestAddUsesFallbackWhenClassifierFails(t *testing.T) {
	store := newFakeStore()
	cls := &fakeClassifier{err: &domain.ClassificationError{Err: errors.New("model down")}}
	eng := newTestEngine(t, store, cls)

	b, err := eng.Add(context.Background(), "Go repo", "https://github.com/golang/go", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if b.Category != "Development" {
		t.Errorf("Add() category = %q, want fallback %q", b.Category, "Development")
	}
	if len(b.Tags) != 1 || b.Tags[0] != "fallback" {
		t.Errorf("Add() tags = %v, want fallback tags", b.Tags)
	}
}

func TestAddHintSkipsClassifier(t *testing.T) {
	store := newFakeStore()
	cls := &fakeClassifier{suggestion: &domain.Suggestion{Category: "Development"}}
	eng := newTestEngine(t, store, cls)

	hint := &domain.Suggestion{Category: "Design", Tags: []string{"ui"}}
	b, err := eng.Add(context.Background(), "Figma", "https://figma.com", hint)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if cls.calls != 0 {
		t.Errorf("classifier called %d times despite hint", cls.calls)
	}
	if b.Category != "Design" {
		t.Errorf("Add() category = %q, want hinted %q", b.Category, "Design")
	}
}

func TestAddEchoSuppressedExactlyOnce(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b, err := eng.Add(context.Background(), "title", "https://example.com", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// The feed echoes our own insert back; it must not duplicate.
	eng.ApplyFeedEvent(domain.FeedEvent{Kind: domain.EventInsert, Bookmark: b.Clone()})
	if got := snapshotIDs(eng); len(got) != 1 {
		t.Fatalf("collection after echo = %v, want exactly one entry", got)
	}

	// A later duplicate insert for the same id is ignored by presence,
	// not by the already-consumed echo.
	eng.ApplyFeedEvent(domain.FeedEvent{Kind: domain.EventInsert, Bookmark: b.Clone()})
	if got := snapshotIDs(eng); len(got) != 1 {
		t.Errorf("collection after duplicate insert = %v, want one entry", got)
	}
}

func TestToggleFavoriteTwiceRestoresOriginal(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b, err := eng.Add(context.Background(), "t", "https://example.com", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := eng.ToggleFavorite(context.Background(), b.ID); err != nil {
			t.Fatalf("ToggleFavorite() #%d error = %v", i+1, err)
		}
	}
	if got := eng.Snapshot()[0]; got.IsFavorite {
		t.Errorf("IsFavorite = true after double toggle, want false")
	}
}

func TestToggleRevertsOnRemoteFailure(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b, err := eng.Add(context.Background(), "t", "https://example.com", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	store.failUpdate = true
	err = eng.TogglePin(context.Background(), b.ID)
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("TogglePin() error = %v, want *PersistenceError", err)
	}
	if got := eng.Snapshot()[0]; got.IsPinned {
		t.Errorf("IsPinned = true after reverted toggle, want false")
	}
}

func TestEditRollbackRestoresFullSnapshot(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b, err := eng.Add(context.Background(), "Original", "https://example.com", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	before := eng.Snapshot()[0]

	store.failUpdate = true
	err = eng.Edit(context.Background(), b.ID, "Changed", "https://changed.example.com", "News", []string{"x"})
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Edit() error = %v, want *PersistenceError", err)
	}

	after := eng.Snapshot()[0]
	if !domain.ContentEqual(before, after) {
		t.Errorf("rollback left a partial edit: before %+v, after %+v", before, after)
	}
}

func TestEditUnknownID(t *testing.T) {
	eng := newTestEngine(t, newFakeStore(), nil)
	err := eng.Edit(context.Background(), "missing", "t", "https://example.com", "News", nil)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Edit() error = %v, want *ValidationError", err)
	}
	if verr.Field != "id" {
		t.Errorf("Edit() error field = %q, want %q", verr.Field, "id")
	}
}

func TestTrackClickSurvivesRemoteFailure(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b, err := eng.Add(context.Background(), "t", "https://example.com", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	store.failIncrement = true
	eng.TrackClick(context.Background(), b.ID)

	// The local increment is kept even though the remote one failed.
	if got := eng.Snapshot()[0].ClickCount; got != 1 {
		t.Errorf("ClickCount = %d, want 1", got)
	}
}

func TestBulkDeleteAllOrNothingRollback(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	var ids []string
	for i := 0; i < 4; i++ {
		b, err := eng.Add(context.Background(), fmt.Sprintf("t%d", i), fmt.Sprintf("https://example.com/%d", i), nil)
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		ids = append(ids, b.ID)
	}
	before := snapshotIDs(eng)

	store.failBulk = true
	err := eng.BulkDelete(context.Background(), []string{ids[0], ids[2]})
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("BulkDelete() error = %v, want *PersistenceError", err)
	}

	after := snapshotIDs(eng)
	if len(after) != len(before) {
		t.Fatalf("rollback lost entries: before %v, after %v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("rollback changed order: before %v, after %v", before, after)
			break
		}
	}
}

func TestBulkDeleteUnknownIDsIgnored(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b, err := eng.Add(context.Background(), "t", "https://example.com", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := eng.BulkDelete(context.Background(), []string{"ghost", b.ID}); err != nil {
		t.Fatalf("BulkDelete() error = %v", err)
	}
	if got := snapshotIDs(eng); len(got) != 0 {
		t.Errorf("collection after bulk delete = %v, want empty", got)
	}
	// Only the present id reached the store.
	if got := store.deletedIDs(); len(got) != 1 || got[0] != b.ID {
		t.Errorf("store deletions = %v, want [%s]", got, b.ID)
	}
}

func TestBulkSetCategoryRollback(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b1, _ := eng.Add(context.Background(), "a", "https://a.example.com", nil)
	b2, _ := eng.Add(context.Background(), "b", "https://b.example.com", nil)

	store.failBulk = true
	err := eng.BulkSetCategory(context.Background(), []string{b1.ID, b2.ID}, "News")
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("BulkSetCategory() error = %v, want *PersistenceError", err)
	}

	for _, b := range eng.Snapshot() {
		if b.Category != "Development" {
			t.Errorf("bookmark %s category = %q after rollback, want %q", b.ID, b.Category, "Development")
		}
	}
}

func TestBulkSetCategoryRejectsUnknownCategory(t *testing.T) {
	eng := newTestEngine(t, newFakeStore(), nil)
	err := eng.BulkSetCategory(context.Background(), []string{"x"}, "Memes")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("BulkSetCategory() error = %v, want *ValidationError", err)
	}
}

func TestImportBatchSkipsDuplicateURLs(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	if _, err := eng.Add(context.Background(), "existing", "https://existing.example.com", nil); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	result, err := eng.ImportBatch(context.Background(), []*domain.Bookmark{
		{Title: "dup", URL: "https://existing.example.com"},
		{Title: "new", URL: "https://new.example.com"},
		{Title: "dup in batch", URL: "https://new.example.com"},
	})
	if err != nil {
		t.Fatalf("ImportBatch() error = %v", err)
	}
	if result.Imported != 1 || result.Duplicates != 2 {
		t.Errorf("ImportBatch() = %+v, want Imported=1 Duplicates=2", result)
	}
	if got := len(eng.Snapshot()); got != 2 {
		t.Errorf("collection size = %d, want 2", got)
	}
}

func TestImportBatchEchoesSuppressed(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	result, err := eng.ImportBatch(context.Background(), []*domain.Bookmark{
		{Title: "a", URL: "https://a.example.com"},
		{Title: "b", URL: "https://b.example.com"},
	})
	if err != nil {
		t.Fatalf("ImportBatch() error = %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("ImportBatch() imported = %d, want 2", result.Imported)
	}

	for _, b := range eng.Snapshot() {
		eng.ApplyFeedEvent(domain.FeedEvent{Kind: domain.EventInsert, Bookmark: b.Clone()})
	}
	if got := len(eng.Snapshot()); got != 2 {
		t.Errorf("collection size after echoes = %d, want 2", got)
	}
}

func TestApplyFeedEvents(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	remote := &domain.Bookmark{ID: "remote-1", OwnerID: "owner-1", Title: "Remote", URL: "https://r.example.com"}

	// Insert from another session lands at the head.
	eng.ApplyFeedEvent(domain.FeedEvent{Kind: domain.EventInsert, Bookmark: remote})
	if got := snapshotIDs(eng); len(got) != 1 || got[0] != "remote-1" {
		t.Fatalf("collection after remote insert = %v", got)
	}

	// Update replaces the stored value.
	updated := remote.Clone()
	updated.Title = "Renamed"
	eng.ApplyFeedEvent(domain.FeedEvent{Kind: domain.EventUpdate, Bookmark: updated})
	if got := eng.Snapshot()[0].Title; got != "Renamed" {
		t.Errorf("title after remote update = %q, want %q", got, "Renamed")
	}

	// Update for an unknown id is a no-op.
	ghost := &domain.Bookmark{ID: "ghost", Title: "x", URL: "https://x.example.com"}
	eng.ApplyFeedEvent(domain.FeedEvent{Kind: domain.EventUpdate, Bookmark: ghost})
	if got := len(eng.Snapshot()); got != 1 {
		t.Errorf("collection size after ghost update = %d, want 1", got)
	}

	// Delete removes it; a second delete is idempotent.
	eng.ApplyFeedEvent(domain.FeedEvent{Kind: domain.EventDelete, Bookmark: &domain.Bookmark{ID: "remote-1"}})
	eng.ApplyFeedEvent(domain.FeedEvent{Kind: domain.EventDelete, Bookmark: &domain.Bookmark{ID: "remote-1"}})
	if got := len(eng.Snapshot()); got != 0 {
		t.Errorf("collection size after remote delete = %d, want 0", got)
	}
}

func TestRemoteDeleteCancelsLocalDeferred(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b, err := eng.Add(context.Background(), "t", "https://example.com", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	eng.Delete(b.ID)
	eng.ApplyFeedEvent(domain.FeedEvent{Kind: domain.EventDelete, Bookmark: &domain.Bookmark{ID: b.ID}})

	// The other session already deleted it; undo has nothing to restore.
	if eng.Undo(b.ID) {
		t.Errorf("Undo() = true after a remote delete cancelled the deferred entry")
	}
}

func TestReloadHidesDeferredIDs(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b1, _ := eng.Add(context.Background(), "a", "https://a.example.com", nil)
	b2, _ := eng.Add(context.Background(), "b", "https://b.example.com", nil)

	eng.Delete(b1.ID)
	if err := eng.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	got := snapshotIDs(eng)
	if len(got) != 1 || got[0] != b2.ID {
		t.Errorf("collection after reload = %v, want only %s visible", got, b2.ID)
	}

	// The deferred delete is still undoable after the reload.
	if !eng.Undo(b1.ID) {
		t.Errorf("Undo() = false after reload, want true")
	}
}

func TestConcurrentMutationsKeepUniqueIDs(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b, err := eng.Add(context.Background(), fmt.Sprintf("t%d", n), fmt.Sprintf("https://example.com/%d", n), nil)
			if err != nil {
				t.Errorf("Add() error = %v", err)
				return
			}
			// Echo arrives concurrently with other mutations.
			eng.ApplyFeedEvent(domain.FeedEvent{Kind: domain.EventInsert, Bookmark: b.Clone()})
			eng.TrackClick(context.Background(), b.ID)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range snapshotIDs(eng) {
		if seen[id] {
			t.Fatalf("duplicate id %s in collection", id)
		}
		seen[id] = true
	}
	if len(seen) != 8 {
		t.Errorf("collection size = %d, want 8", len(seen))
	}
}
