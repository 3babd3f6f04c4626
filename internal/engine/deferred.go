package engine

import (
	"sync"
	"time"

	"github.com/linknest/linknest/internal/domain"
)

// deleteState tracks the lifecycle of one deferred deletion.
// Transitions are scheduled → cancelled or scheduled → fired, decided
// exactly once under the state mutex, so undo and the timer firing can
// race freely and only one of them wins.
type deleteState int

const (
	deleteScheduled deleteState = iota
	deleteCancelled
	deleteFired
)

// deferredDelete holds a bookmark that is locally gone but not yet
// deleted remotely, together with the timer that will make the deletion
// permanent once the grace window elapses.
type deferredDelete struct {
	mu       sync.Mutex
	state    deleteState
	snapshot *domain.Bookmark
	timer    *time.Timer
}

func newDeferredDelete(snapshot *domain.Bookmark) *deferredDelete {
	return &deferredDelete{snapshot: snapshot}
}

// schedule arms the timer. Separate from the constructor so the entry
// is registered in the engine's map before the timer can possibly fire.
func (d *deferredDelete) schedule(grace time.Duration, fire func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != deleteScheduled {
		return
	}
	d.timer = time.AfterFunc(grace, fire)
}

// tryFire claims the scheduled → fired transition. Returns false when
// the deletion was already cancelled or fired.
func (d *deferredDelete) tryFire() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != deleteScheduled {
		return false
	}
	d.state = deleteFired
	return true
}

// tryCancel claims the scheduled → cancelled transition and stops the
// timer. Returns false when the remote delete already fired.
func (d *deferredDelete) tryCancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != deleteScheduled {
		return false
	}
	d.state = deleteCancelled
	if d.timer != nil {
		d.timer.Stop()
	}
	return true
}
