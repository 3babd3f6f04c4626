package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/linknest/linknest/internal/domain"
	"github.com/linknest/linknest/internal/logger"
)

type fakeFeed struct {
	mu          sync.Mutex
	subscribed  map[string]func(domain.FeedEvent)
	unsubCounts map[string]int
	err         error
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		subscribed:  make(map[string]func(domain.FeedEvent)),
		unsubCounts: make(map[string]int),
	}
}

func (f *fakeFeed) Subscribe(_ context.Context, ownerID string, onEvent func(domain.FeedEvent)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.subscribed[ownerID] = onEvent
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubCounts[ownerID]++
		delete(f.subscribed, ownerID)
	}, nil
}

func (f *fakeFeed) publish(ownerID string, ev domain.FeedEvent) {
	f.mu.Lock()
	onEvent := f.subscribed[ownerID]
	f.mu.Unlock()
	if onEvent != nil {
		onEvent(ev)
	}
}

func newTestManager(store Store, feed Feed) *Manager {
	return NewManager(ManagerOptions{
		Store:      store,
		Classifier: &fakeClassifier{suggestion: &domain.Suggestion{Category: "Development"}},
		Feed:       feed,
		Logger:     logger.NewNop(),
	})
}

func TestManagerOpenReusesSession(t *testing.T) {
	m := newTestManager(newFakeStore(), newFakeFeed())

	first, err := m.Open(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	second, err := m.Open(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if first != second {
		t.Error("Open() built a second engine for the same owner")
	}
}

func TestManagerIsolatesOwners(t *testing.T) {
	store := newFakeStore()
	feed := newFakeFeed()
	m := newTestManager(store, feed)

	a, err := m.Open(context.Background(), "owner-a")
	if err != nil {
		t.Fatalf("Open(owner-a) error = %v", err)
	}
	b, err := m.Open(context.Background(), "owner-b")
	if err != nil {
		t.Fatalf("Open(owner-b) error = %v", err)
	}

	if _, err := a.Add(context.Background(), "t", "https://a.example.com", nil); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if got := len(b.Snapshot()); got != 0 {
		t.Errorf("owner-b collection size = %d, want 0", got)
	}
}

func TestManagerWiresFeedToEngine(t *testing.T) {
	feed := newFakeFeed()
	m := newTestManager(newFakeStore(), feed)

	eng, err := m.Open(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	feed.publish("owner-1", domain.FeedEvent{
		Kind:     domain.EventInsert,
		Bookmark: &domain.Bookmark{ID: "remote-1", Title: "r", URL: "https://r.example.com"},
	})
	if got := len(eng.Snapshot()); got != 1 {
		t.Errorf("collection size after feed insert = %d, want 1", got)
	}
}

func TestManagerOpenFeedFailure(t *testing.T) {
	feed := newFakeFeed()
	feed.err = errors.New("broker down")
	m := newTestManager(newFakeStore(), feed)

	_, err := m.Open(context.Background(), "owner-1")
	var ferr *domain.FeedError
	if !errors.As(err, &ferr) {
		t.Fatalf("Open() error = %v, want *FeedError", err)
	}
	if m.Lookup("owner-1") != nil {
		t.Error("Lookup() found a session after a failed open")
	}
}

func TestManagerCloseUnsubscribes(t *testing.T) {
	feed := newFakeFeed()
	m := newTestManager(newFakeStore(), feed)

	if _, err := m.Open(context.Background(), "owner-1"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	m.Close("owner-1")

	if got := feed.unsubCounts["owner-1"]; got != 1 {
		t.Errorf("unsubscribe count = %d, want 1", got)
	}
	if m.Lookup("owner-1") != nil {
		t.Error("Lookup() found a session after close")
	}

	// Closing a closed session is a no-op.
	m.Close("owner-1")
	if got := feed.unsubCounts["owner-1"]; got != 1 {
		t.Errorf("unsubscribe count after double close = %d, want 1", got)
	}
}

func TestManagerCloseAll(t *testing.T) {
	feed := newFakeFeed()
	m := newTestManager(newFakeStore(), feed)

	for _, owner := range []string{"a", "b", "c"} {
		if _, err := m.Open(context.Background(), owner); err != nil {
			t.Fatalf("Open(%s) error = %v", owner, err)
		}
	}
	m.CloseAll()

	if got := len(m.Engines()); got != 0 {
		t.Errorf("Engines() size after CloseAll = %d, want 0", got)
	}
	for _, owner := range []string{"a", "b", "c"} {
		if feed.unsubCounts[owner] != 1 {
			t.Errorf("owner %s unsubscribe count = %d, want 1", owner, feed.unsubCounts[owner])
		}
	}
}
