package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/linknest/linknest/internal/domain"
	"github.com/linknest/linknest/internal/logger"
)

func TestUndoWithinGraceRestoresContent(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b, err := eng.Add(context.Background(), "t", "https://example.com", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	before := eng.Snapshot()[0]

	eng.Delete(b.ID)
	if got := len(eng.Snapshot()); got != 0 {
		t.Fatalf("collection size after delete = %d, want 0", got)
	}

	if !eng.Undo(b.ID) {
		t.Fatal("Undo() = false within the grace window, want true")
	}
	after := eng.Snapshot()[0]
	if !domain.ContentEqual(before, after) {
		t.Errorf("restored bookmark differs: before %+v, after %+v", before, after)
	}
	// No remote delete may have been issued.
	if got := store.deletedIDs(); len(got) != 0 {
		t.Errorf("store deletions = %v, want none", got)
	}
}

func TestDeferredDeleteFiresAfterGrace(t *testing.T) {
	store := newFakeStore()
	eng := New(Options{
		OwnerID:    "owner-1",
		Store:      store,
		Classifier: &fakeClassifier{suggestion: &domain.Suggestion{Category: "Development"}},
		Logger:     logger.NewNop(),
		Grace:      10 * time.Millisecond,
	})

	b, err := eng.Add(context.Background(), "t", "https://example.com", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	eng.Delete(b.ID)

	deadline := time.Now().Add(2 * time.Second)
	for len(store.deletedIDs()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("remote delete never fired after the grace window")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if eng.Undo(b.ID) {
		t.Errorf("Undo() = true after the remote delete fired, want false")
	}
	if got := len(eng.Snapshot()); got != 0 {
		t.Errorf("collection size = %d, want 0", got)
	}
}

func TestUndoUnknownID(t *testing.T) {
	eng := newTestEngine(t, newFakeStore(), nil)
	if eng.Undo("never-deleted") {
		t.Error("Undo() = true for an id with no deferred delete")
	}
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	eng := newTestEngine(t, newFakeStore(), nil)
	eng.Delete("ghost")
	if got := len(eng.Snapshot()); got != 0 {
		t.Errorf("collection size = %d, want 0", got)
	}
}

func TestDeferredTransitionClaimedOnce(t *testing.T) {
	d := newDeferredDelete(&domain.Bookmark{ID: "x"})

	var mu sync.Mutex
	cancelled, fired := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				if d.tryCancel() {
					mu.Lock()
					cancelled++
					mu.Unlock()
				}
			} else {
				if d.tryFire() {
					mu.Lock()
					fired++
					mu.Unlock()
				}
			}
		}(i)
	}
	wg.Wait()

	if cancelled+fired != 1 {
		t.Errorf("transitions claimed = %d cancelled + %d fired, want exactly one total", cancelled, fired)
	}
}

func TestScheduleAfterCancelDoesNotArm(t *testing.T) {
	d := newDeferredDelete(&domain.Bookmark{ID: "x"})
	if !d.tryCancel() {
		t.Fatal("tryCancel() = false on a fresh entry")
	}

	firedCh := make(chan struct{}, 1)
	d.schedule(time.Millisecond, func() { firedCh <- struct{}{} })

	select {
	case <-firedCh:
		t.Error("timer fired despite prior cancellation")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseFlushesPendingDeletes(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, nil)

	b, err := eng.Add(context.Background(), "t", "https://example.com", nil)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	eng.Delete(b.ID)

	// The grace window is an hour; Close must not wait for it.
	eng.Close()
	if got := store.deletedIDs(); len(got) != 1 || got[0] != b.ID {
		t.Errorf("store deletions after close = %v, want [%s]", got, b.ID)
	}

	// Close is idempotent.
	eng.Close()
	if got := store.deletedIDs(); len(got) != 1 {
		t.Errorf("store deletions after second close = %v, want one entry", got)
	}
}
