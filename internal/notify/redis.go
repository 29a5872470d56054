package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher sends events to every server instance through a Redis
// pub/sub channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}

// RedisRelay feeds events received on the Redis channel into a local
// publisher, normally the Hub.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	local   Publisher
	logger  *zap.Logger
}

func NewRedisRelay(client redis.UniversalClient, channel string, local Publisher, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, local: local, logger: logger}
}

// Run blocks until ctx is done or the subscription fails.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}
	r.logger.Info("relaying notifications", zap.String("channel", r.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", r.channel)
			}
			r.relay(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) relay(ctx context.Context, payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		r.logger.Warn("discarding malformed event", zap.Error(err))
		return
	}

	if err := r.local.Publish(ctx, event); err != nil {
		r.logger.Warn("local delivery failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
