package feed

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/linknest/linknest/internal/domain"
	"github.com/linknest/linknest/internal/logger"
	redisstore "github.com/linknest/linknest/internal/store/redis"
)

// Client subscribes to per-owner change-feed channels over Redis
// Pub/Sub. Reconnect and backoff live inside go-redis; consumers only
// see a stream of events. Delivery is at-least-once — the engine's
// id-presence checks make duplicates safe.
type Client struct {
	client *redis.Client
	log    logger.Logger
}

// NewClient creates a change-feed client.
func NewClient(client *redis.Client, log logger.Logger) *Client {
	return &Client{client: client, log: log}
}

// Subscribe delivers every event published on ownerID's channel to
// onEvent, in arrival order, from a single goroutine. The returned
// function stops delivery and releases the subscription.
func (c *Client) Subscribe(ctx context.Context, ownerID string, onEvent func(domain.FeedEvent)) (func(), error) {
	channel := redisstore.FeedChannel(ownerID)
	sub := c.client.Subscribe(ctx, channel)

	// Confirm the subscription before handing out events so callers
	// never miss writes issued after Subscribe returns.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	go func() {
		for msg := range sub.Channel() {
			ev, err := decodeEvent([]byte(msg.Payload))
			if err != nil {
				c.log.Warn("dropping undecodable feed event",
					logger.String("channel", channel),
					logger.Error(err))
				continue
			}
			onEvent(ev)
		}
	}()

	c.log.Debug("feed subscription opened", logger.String("owner_id", ownerID))
	return func() {
		if err := sub.Close(); err != nil {
			c.log.Warn("failed to close feed subscription",
				logger.String("owner_id", ownerID), logger.Error(err))
		}
	}, nil
}

// decodeEvent parses a wire payload. Events without a kind or a
// bookmark id are invalid.
func decodeEvent(payload []byte) (domain.FeedEvent, error) {
	var ev domain.FeedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return domain.FeedEvent{}, &domain.FeedError{Err: err}
	}
	switch ev.Kind {
	case domain.EventInsert, domain.EventUpdate, domain.EventDelete:
	default:
		return domain.FeedEvent{}, &domain.FeedError{Err: errUnknownKind(ev.Kind)}
	}
	if ev.ID() == "" {
		return domain.FeedEvent{}, &domain.FeedError{Err: errMissingID}
	}
	return ev, nil
}
