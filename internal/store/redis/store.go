package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/linknest/linknest/internal/domain"
	"github.com/linknest/linknest/internal/logger"
)

// Store is the remote persistence gateway backed by Redis. Every
// bookmark lives in its own JSON value; a per-owner set tracks the ids.
// Each successful write publishes a feed event on the owner's channel
// so other sessions converge without polling.
type Store struct {
	client *redis.Client
	log    logger.Logger
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{client: client, log: log}
}

// publish sends a feed event to the owner's channel. Best effort: a
// lost publish is healed by the resync scheduler, so failures only log.
func (s *Store) publish(ctx context.Context, ownerID string, kind domain.EventKind, b *domain.Bookmark) {
	ev := domain.FeedEvent{Kind: kind, Bookmark: b}
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Warn("failed to marshal feed event",
			logger.String("kind", string(kind)), logger.Error(err))
		return
	}
	if err := s.client.Publish(ctx, FeedChannel(ownerID), data).Err(); err != nil {
		s.log.Warn("failed to publish feed event",
			logger.String("owner_id", ownerID),
			logger.String("kind", string(kind)),
			logger.Error(err))
	}
}
