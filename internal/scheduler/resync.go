package scheduler

import (
	"context"
	"time"

	"github.com/linknest/linknest/internal/engine"
	"github.com/linknest/linknest/internal/logger"
)

// Resyncer periodically re-lists every open session from the store.
// The change feed is at-least-once but not guaranteed-delivery; a
// resync heals any drift from events lost while a connection was down.
type Resyncer struct {
	manager  *engine.Manager
	logger   logger.Logger
	interval time.Duration
	trigger  chan struct{}
	refresh  func()
	stopCh   chan struct{}
}

// NewResyncer creates a resync scheduler. trigger may be nil; when set,
// a send on it forces an immediate resync. refresh may be nil; when set,
// it runs before every sweep (used to re-read the domain rules file).
func NewResyncer(
	manager *engine.Manager,
	log logger.Logger,
	interval time.Duration,
	trigger chan struct{},
	refresh func(),
) *Resyncer {
	return &Resyncer{
		manager:  manager,
		logger:   log,
		interval: interval,
		trigger:  trigger,
		refresh:  refresh,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic resync loop.
func (r *Resyncer) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Resync(ctx)
			case <-r.trigger:
				r.logger.Info("manual resync triggered")
				r.Resync(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop stops the resync loop.
func (r *Resyncer) Stop() {
	close(r.stopCh)
}

// Resync reloads every open engine. Failures are logged per session and
// never abort the sweep: a session that cannot reload keeps serving its
// current collection.
func (r *Resyncer) Resync(ctx context.Context) {
	if r.refresh != nil {
		r.refresh()
	}

	engines := r.manager.Engines()
	if len(engines) == 0 {
		r.logger.Debug("no open sessions to resync")
		return
	}

	resynced := 0
	for _, eng := range engines {
		if err := eng.Reload(ctx); err != nil {
			r.logger.Warn("session resync failed",
				logger.String("owner_id", eng.OwnerID()),
				logger.Error(err))
			continue
		}
		resynced++
	}

	r.logger.Info("resync completed",
		logger.Int("sessions", len(engines)),
		logger.Int("resynced", resynced))
}
