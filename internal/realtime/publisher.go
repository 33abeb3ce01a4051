package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
)

// Publisher pushes queued notifications to per-employee channels.
type Publisher interface {
	PublishNotification(ctx context.Context, payload events.NotificationQueuedPayload) error
}

// redisPublisher delivers over Redis pub/sub. Each employee has a channel
// named <prefix>:<employee-id>; connected clients subscribe to their own.
type redisPublisher struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisPublisher constructs a Redis-backed publisher.
func NewRedisPublisher(client *redis.Client, prefix string, logger *zap.Logger) Publisher {
	return &redisPublisher{client: client, prefix: prefix, logger: logger}
}

func (p *redisPublisher) PublishNotification(ctx context.Context, payload events.NotificationQueuedPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	channel := fmt.Sprintf("%s:%s", p.prefix, payload.Recipient.ID)
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		p.logger.Warn("realtime publish failed",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// noopPublisher is used when Redis is not configured.
type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops everything.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishNotification(context.Context, events.NotificationQueuedPayload) error {
	return nil
}
