package engine

import (
	"context"
	"sync"
	"time"

	"github.com/linknest/linknest/internal/domain"
	"github.com/linknest/linknest/internal/logger"
)

const (
	// DefaultGraceWindow is the delay between a user-visible delete and
	// the irreversible remote delete, during which undo is possible.
	DefaultGraceWindow = 5 * time.Second

	// remoteTimeout bounds the store call issued when a deferred delete
	// fires outside any caller context.
	remoteTimeout = 10 * time.Second
)

// Engine owns the authoritative in-memory bookmark collection for one
// owner. It applies local optimistic mutations, reconciles them against
// confirmed writes and feed events, manages deferred deletion with undo,
// and suppresses self-generated echoes.
//
// The collection is mutated only under the engine's own mutex; remote
// calls happen outside the lock so unrelated operations never block on
// the network. For a single id the in-memory value is the source of
// truth for subsequent edits, so concurrent edits are not reordered.
type Engine struct {
	ownerID    string
	store      Store
	classifier Classifier
	log        logger.Logger
	grace      time.Duration
	notify     func(Notification)

	mu        sync.Mutex
	bookmarks []*domain.Bookmark // display order, most recent first
	echoes    map[string]struct{}
	deferred  map[string]*deferredDelete
	closed    bool
}

// Options configures an Engine.
type Options struct {
	OwnerID    string
	Store      Store
	Classifier Classifier
	Logger     logger.Logger
	Grace      time.Duration      // zero means DefaultGraceWindow
	Notify     func(Notification) // optional host callback
}

// New creates an empty engine. Call Reload to populate it from the store.
func New(opts Options) *Engine {
	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(Notification) {}
	}
	return &Engine{
		ownerID:    opts.OwnerID,
		store:      opts.Store,
		classifier: opts.Classifier,
		log:        opts.Logger,
		grace:      grace,
		notify:     notify,
		echoes:     make(map[string]struct{}),
		deferred:   make(map[string]*deferredDelete),
	}
}

// OwnerID returns the owner this engine is scoped to.
func (e *Engine) OwnerID() string { return e.ownerID }

// Snapshot returns a deep copy of the collection in display order.
// View projections run over snapshots, never over live state.
func (e *Engine) Snapshot() []*domain.Bookmark {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*domain.Bookmark, len(e.bookmarks))
	for i, b := range e.bookmarks {
		out[i] = b.Clone()
	}
	return out
}

// Reload replaces the collection with the store's current contents.
// Ids with a pending deferred delete stay hidden; pending echoes and
// timers survive the reload.
func (e *Engine) Reload(ctx context.Context) error {
	listed, err := e.store.List(ctx, e.ownerID)
	if err != nil {
		return &domain.PersistenceError{Op: "list", Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fresh := make([]*domain.Bookmark, 0, len(listed))
	for _, b := range listed {
		if _, hidden := e.deferred[b.ID]; hidden {
			continue
		}
		fresh = append(fresh, b)
	}
	e.bookmarks = fresh
	return nil
}

// Add validates, classifies and persists a new bookmark. Not optimistic:
// the id is server-assigned, so nothing is inserted until the store
// confirms. The confirmed id is marked as a pending echo so the feed
// event for our own insert is suppressed exactly once.
//
// A non-nil hint skips the classifier call (the extension popup
// classifies before submitting). Classifier failures fall back to the
// deterministic domain guess and never block the add.
func (e *Engine) Add(ctx context.Context, title, rawURL string, hint *domain.Suggestion) (*domain.Bookmark, error) {
	if err := domain.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	suggestion := hint
	if suggestion == nil {
		var err error
		suggestion, err = e.classifier.Classify(ctx, rawURL, title)
		if err != nil || suggestion == nil {
			if err != nil {
				e.log.Warn("classification failed, using domain fallback",
					logger.String("url", rawURL), logger.Error(err))
			}
			suggestion = e.classifier.Fallback(rawURL, title)
		}
	}

	fields := &domain.Bookmark{
		OwnerID:  e.ownerID,
		Title:    domain.EffectiveTitle(title, suggestion.SuggestedTitle, suggestion.PageTitle, rawURL),
		URL:      rawURL,
		Category: suggestion.Category,
		Tags:     domain.NormalizeTags(suggestion.Tags),
		Summary:  suggestion.Summary,
	}

	created, err := e.store.Create(ctx, e.ownerID, fields)
	if err != nil {
		perr := &domain.PersistenceError{Op: "create", Err: err}
		e.notify(Notification{Kind: NoteError, Err: perr})
		return nil, perr
	}

	e.mu.Lock()
	e.echoes[created.ID] = struct{}{}
	if e.indexOf(created.ID) < 0 {
		e.bookmarks = append([]*domain.Bookmark{created.Clone()}, e.bookmarks...)
	}
	e.mu.Unlock()

	e.notify(Notification{Kind: NoteAdded, Bookmark: created.Clone()})
	return created.Clone(), nil
}

// Delete removes the bookmark from the visible collection immediately
// and schedules the remote delete after the grace window. Undo within
// the window cancels it and restores the bookmark.
func (e *Engine) Delete(id string) {
	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	snapshot := e.bookmarks[i]
	e.bookmarks = append(e.bookmarks[:i], e.bookmarks[i+1:]...)

	d := newDeferredDelete(snapshot)
	e.deferred[id] = d
	e.mu.Unlock()

	d.schedule(e.grace, func() { e.fireDeferred(id) })
	e.notify(Notification{Kind: NoteDeletedUndoable, Bookmark: snapshot.Clone()})
}

// Undo restores a bookmark whose grace window has not yet elapsed.
// Returns false once the remote delete already fired. Reinsertion is at
// the head: deletions only ever target currently visible items.
func (e *Engine) Undo(id string) bool {
	e.mu.Lock()
	d, ok := e.deferred[id]
	if !ok {
		e.mu.Unlock()
		return false
	}
	if !d.tryCancel() {
		e.mu.Unlock()
		return false
	}
	delete(e.deferred, id)
	if e.indexOf(id) < 0 {
		e.bookmarks = append([]*domain.Bookmark{d.snapshot}, e.bookmarks...)
	}
	e.mu.Unlock()

	e.notify(Notification{Kind: NoteRestored, Bookmark: d.snapshot.Clone()})
	return true
}

// fireDeferred makes a deferred deletion permanent. A remote failure is
// reported, not reversed: local state already reflects the deletion and
// re-adding would contradict user intent.
func (e *Engine) fireDeferred(id string) {
	e.mu.Lock()
	d, ok := e.deferred[id]
	e.mu.Unlock()
	if !ok || !d.tryFire() {
		return
	}

	e.mu.Lock()
	delete(e.deferred, id)
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()
	if err := e.store.Delete(ctx, id); err != nil {
		perr := &domain.PersistenceError{Op: "delete", Err: err}
		e.log.Error("remote delete failed after grace window",
			logger.String("bookmark_id", id), logger.Error(err))
		e.notify(Notification{Kind: NoteError, Err: perr})
	}
}

// ToggleFavorite flips the favourite flag optimistically and reverts it
// when the remote update fails. Idempotent under retry: two calls with
// no intervening change land back on the original value.
func (e *Engine) ToggleFavorite(ctx context.Context, id string) error {
	return e.toggleFlag(ctx, id, "favorite")
}

// TogglePin flips the pin flag optimistically, reverting on failure.
func (e *Engine) TogglePin(ctx context.Context, id string) error {
	return e.toggleFlag(ctx, id, "pin")
}

func (e *Engine) toggleFlag(ctx context.Context, id, flag string) error {
	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return &domain.ValidationError{Field: "id", Reason: "unknown bookmark"}
	}
	b := e.bookmarks[i]
	var prev, next bool
	var patch domain.BookmarkPatch
	if flag == "favorite" {
		prev = b.IsFavorite
		next = !prev
		b.IsFavorite = next
		patch.IsFavorite = &next
	} else {
		prev = b.IsPinned
		next = !prev
		b.IsPinned = next
		patch.IsPinned = &next
	}
	e.mu.Unlock()

	if err := e.store.Update(ctx, id, patch); err != nil {
		e.mu.Lock()
		if j := e.indexOf(id); j >= 0 {
			if flag == "favorite" {
				e.bookmarks[j].IsFavorite = prev
			} else {
				e.bookmarks[j].IsPinned = prev
			}
		}
		e.mu.Unlock()
		perr := &domain.PersistenceError{Op: "update " + flag, Err: err}
		e.notify(Notification{Kind: NoteError, Err: perr})
		return perr
	}
	return nil
}

// Edit applies new fields optimistically and restores the full prior
// snapshot — not just the changed fields — when the remote update fails.
func (e *Engine) Edit(ctx context.Context, id, title, rawURL, category string, tags []string) error {
	if err := domain.ValidateURL(rawURL); err != nil {
		return err
	}
	tags = domain.NormalizeTags(tags)

	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return &domain.ValidationError{Field: "id", Reason: "unknown bookmark"}
	}
	prior := e.bookmarks[i].Clone()
	b := e.bookmarks[i]
	b.Title = title
	b.URL = rawURL
	b.Category = category
	b.Tags = tags
	updated := b.Clone()
	e.mu.Unlock()

	patch := domain.BookmarkPatch{Title: &title, URL: &rawURL, Category: &category, Tags: &tags}
	if err := e.store.Update(ctx, id, patch); err != nil {
		e.mu.Lock()
		if j := e.indexOf(id); j >= 0 {
			e.bookmarks[j] = prior
		}
		e.mu.Unlock()
		perr := &domain.PersistenceError{Op: "update", Err: err}
		e.notify(Notification{Kind: NoteError, Err: perr})
		return perr
	}

	e.notify(Notification{Kind: NoteUpdated, Bookmark: updated})
	return nil
}

// TrackClick bumps the click counter optimistically and fires a remote
// increment. Fire-and-forget: view counts are best-effort telemetry,
// a failed increment is logged and never rolled back.
func (e *Engine) TrackClick(ctx context.Context, id string) {
	e.mu.Lock()
	if i := e.indexOf(id); i >= 0 {
		e.bookmarks[i].ClickCount++
	}
	e.mu.Unlock()

	if err := e.store.IncrementClick(ctx, id); err != nil {
		e.log.Debug("click tracking failed",
			logger.String("bookmark_id", id), logger.Error(err))
	}
}

// BulkDelete removes all given ids in a single state transition and
// issues one batched remote delete. On failure the whole batch is
// rolled back at the recorded positions — never per item.
func (e *Engine) BulkDelete(ctx context.Context, ids []string) error {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	type removed struct {
		index    int
		bookmark *domain.Bookmark
	}

	e.mu.Lock()
	var gone []removed
	kept := e.bookmarks[:0:0]
	for i, b := range e.bookmarks {
		if idSet[b.ID] {
			gone = append(gone, removed{index: i, bookmark: b})
		} else {
			kept = append(kept, b)
		}
	}
	if len(gone) == 0 {
		e.mu.Unlock()
		return nil
	}
	e.bookmarks = kept
	present := make([]string, 0, len(gone))
	for _, r := range gone {
		present = append(present, r.bookmark.ID)
	}
	e.mu.Unlock()

	if err := e.store.BulkDelete(ctx, present); err != nil {
		e.mu.Lock()
		for _, r := range gone {
			at := r.index
			if at > len(e.bookmarks) {
				at = len(e.bookmarks)
			}
			e.bookmarks = append(e.bookmarks[:at],
				append([]*domain.Bookmark{r.bookmark}, e.bookmarks[at:]...)...)
		}
		e.mu.Unlock()
		perr := &domain.PersistenceError{Op: "bulk delete", Err: err}
		e.notify(Notification{Kind: NoteError, Err: perr})
		return perr
	}
	return nil
}

// BulkSetCategory moves all given ids to a category in one state
// transition, rolling every one of them back on remote failure.
func (e *Engine) BulkSetCategory(ctx context.Context, ids []string, category string) error {
	if !domain.IsKnownCategory(category) {
		return &domain.ValidationError{Field: "category", Reason: "unknown category"}
	}

	e.mu.Lock()
	prior := make(map[string]string, len(ids))
	var present []string
	for _, id := range ids {
		if i := e.indexOf(id); i >= 0 {
			prior[id] = e.bookmarks[i].Category
			e.bookmarks[i].Category = category
			present = append(present, id)
		}
	}
	e.mu.Unlock()

	if len(present) == 0 {
		return nil
	}

	if err := e.store.BulkUpdateCategory(ctx, present, category); err != nil {
		e.mu.Lock()
		for id, cat := range prior {
			if i := e.indexOf(id); i >= 0 {
				e.bookmarks[i].Category = cat
			}
		}
		e.mu.Unlock()
		perr := &domain.PersistenceError{Op: "bulk category", Err: err}
		e.notify(Notification{Kind: NoteError, Err: perr})
		return perr
	}
	return nil
}

// ImportResult reports what an import did.
type ImportResult struct {
	Imported   int
	Duplicates int
}

// ImportBatch persists the non-duplicate subset of parsed bookmarks in
// one bulk insert and prepends the confirmed rows. Duplicate detection
// is an exact match on the URL string against the current collection.
func (e *Engine) ImportBatch(ctx context.Context, parsed []*domain.Bookmark) (ImportResult, error) {
	e.mu.Lock()
	existing := make(map[string]bool, len(e.bookmarks))
	for _, b := range e.bookmarks {
		existing[b.URL] = true
	}
	e.mu.Unlock()

	var fresh []*domain.Bookmark
	duplicates := 0
	for _, item := range parsed {
		if existing[item.URL] {
			duplicates++
			continue
		}
		existing[item.URL] = true
		fresh = append(fresh, item)
	}

	if len(fresh) == 0 {
		return ImportResult{Duplicates: duplicates}, nil
	}

	created, err := e.store.BulkInsert(ctx, e.ownerID, fresh)
	if err != nil {
		perr := &domain.PersistenceError{Op: "bulk insert", Err: err}
		e.notify(Notification{Kind: NoteError, Err: perr})
		return ImportResult{Duplicates: duplicates}, perr
	}

	e.mu.Lock()
	head := make([]*domain.Bookmark, 0, len(created))
	for _, b := range created {
		e.echoes[b.ID] = struct{}{}
		if e.indexOf(b.ID) < 0 {
			head = append(head, b.Clone())
		}
	}
	e.bookmarks = append(head, e.bookmarks...)
	e.mu.Unlock()

	return ImportResult{Imported: len(created), Duplicates: duplicates}, nil
}

// ApplyFeedEvent merges one remote change into the collection. Events
// are applied in arrival order; per-id ordering is the feed transport's
// guarantee. Inserts matching a pending echo are consumed silently,
// inserts for known ids are ignored, updates and deletes are idempotent
// by id presence. A remote delete also cancels any local deferred timer
// for that id — the deletion already happened elsewhere.
func (e *Engine) ApplyFeedEvent(ev domain.FeedEvent) {
	id := ev.ID()
	if id == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Kind {
	case domain.EventInsert:
		if _, echoed := e.echoes[id]; echoed {
			delete(e.echoes, id)
			return
		}
		if e.indexOf(id) >= 0 {
			return
		}
		e.bookmarks = append([]*domain.Bookmark{ev.Bookmark.Clone()}, e.bookmarks...)

	case domain.EventUpdate:
		if i := e.indexOf(id); i >= 0 {
			e.bookmarks[i] = ev.Bookmark.Clone()
		}

	case domain.EventDelete:
		if i := e.indexOf(id); i >= 0 {
			e.bookmarks = append(e.bookmarks[:i], e.bookmarks[i+1:]...)
		}
		if d, ok := e.deferred[id]; ok {
			d.tryCancel()
			delete(e.deferred, id)
		}
	}
}

// Close tears the engine down. Pending deferred deletes are made
// permanent immediately: the user asked for them and there will be no
// further chance to undo.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	pending := make([]string, 0, len(e.deferred))
	for id, d := range e.deferred {
		if d.tryCancel() {
			pending = append(pending, id)
		}
		delete(e.deferred, id)
	}
	e.bookmarks = nil
	e.mu.Unlock()

	for _, id := range pending {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		if err := e.store.Delete(ctx, id); err != nil {
			e.log.Warn("deferred delete flush failed on close",
				logger.String("bookmark_id", id), logger.Error(err))
		}
		cancel()
	}
}

// indexOf must be called with e.mu held.
func (e *Engine) indexOf(id string) int {
	for i, b := range e.bookmarks {
		if b.ID == id {
			return i
		}
	}
	return -1
}
