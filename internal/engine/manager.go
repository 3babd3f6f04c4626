package engine

import (
	"context"
	"sync"
	"time"

	"github.com/linknest/linknest/internal/domain"
	"github.com/linknest/linknest/internal/logger"
)

// Manager hands out one engine per authenticated owner. An engine is
// built on first use (initial list + feed subscription) and torn down on
// sign-out or owner switch, so sessions never share mutable state.
type Manager struct {
	store      Store
	classifier Classifier
	feed       Feed
	log        logger.Logger
	grace      time.Duration
	notify     func(ownerID string, n Notification)

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	engine      *Engine
	unsubscribe func()
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Store      Store
	Classifier Classifier
	Feed       Feed
	Logger     logger.Logger
	Grace      time.Duration
	Notify     func(ownerID string, n Notification) // optional
}

// NewManager creates an empty manager.
func NewManager(opts ManagerOptions) *Manager {
	return &Manager{
		store:      opts.Store,
		classifier: opts.Classifier,
		feed:       opts.Feed,
		log:        opts.Logger,
		grace:      opts.Grace,
		notify:     opts.Notify,
		sessions:   make(map[string]*session),
	}
}

// Open returns the engine for ownerID, creating it on first call. The
// new engine is loaded from the store and wired to the change feed
// before it is handed out.
func (m *Manager) Open(ctx context.Context, ownerID string) (*Engine, error) {
	m.mu.Lock()
	if s, ok := m.sessions[ownerID]; ok {
		m.mu.Unlock()
		return s.engine, nil
	}
	m.mu.Unlock()

	var notify func(Notification)
	if m.notify != nil {
		notify = func(n Notification) { m.notify(ownerID, n) }
	}
	eng := New(Options{
		OwnerID:    ownerID,
		Store:      m.store,
		Classifier: m.classifier,
		Logger:     m.log,
		Grace:      m.grace,
		Notify:     notify,
	})

	if err := eng.Reload(ctx); err != nil {
		return nil, err
	}

	unsubscribe, err := m.feed.Subscribe(ctx, ownerID, eng.ApplyFeedEvent)
	if err != nil {
		return nil, &domain.FeedError{Err: err}
	}

	m.mu.Lock()
	// A concurrent Open for the same owner may have won the race.
	if s, ok := m.sessions[ownerID]; ok {
		m.mu.Unlock()
		unsubscribe()
		eng.Close()
		return s.engine, nil
	}
	m.sessions[ownerID] = &session{engine: eng, unsubscribe: unsubscribe}
	m.mu.Unlock()

	m.log.Info("session opened",
		logger.String("owner_id", ownerID),
		logger.Int("bookmarks", len(eng.Snapshot())))
	return eng, nil
}

// Lookup returns the open engine for ownerID, or nil.
func (m *Manager) Lookup(ownerID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[ownerID]; ok {
		return s.engine
	}
	return nil
}

// Close tears down one owner's session: feed unsubscribed, timers
// resolved, collection dropped.
func (m *Manager) Close(ownerID string) {
	m.mu.Lock()
	s, ok := m.sessions[ownerID]
	if ok {
		delete(m.sessions, ownerID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	s.unsubscribe()
	s.engine.Close()
	m.log.Info("session closed", logger.String("owner_id", ownerID))
}

// CloseAll tears down every session. Called on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for ownerID, s := range sessions {
		s.unsubscribe()
		s.engine.Close()
		m.log.Debug("session closed", logger.String("owner_id", ownerID))
	}
}

// Engines snapshots the currently open engines, for the resync
// scheduler.
func (m *Manager) Engines() []*Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Engine, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.engine)
	}
	return out
}
