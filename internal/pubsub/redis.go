package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	logging "github.com/anhldbk/graphqly/internal/logging"
	goredis "github.com/redis/go-redis/v9"
)

// Redis is a Channel backed by Redis PUBLISH/SUBSCRIBE, for subscriptions
// served by several processes. Payloads travel as JSON, so subscribers
// receive decoded JSON values (maps, slices, float64, ...).
type Redis struct {
	client goredis.UniversalClient
	prefix string
	log    logging.Logger
}

// NewRedis returns a channel publishing to prefix+event on client.
func NewRedis(client goredis.UniversalClient, prefix string, log logging.Logger) *Redis {
	return &Redis{client: client, prefix: prefix, log: logging.OrNop(log)}
}

func (r *Redis) channel(event string) string { return r.prefix + event }

func (r *Redis) Publish(ctx context.Context, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal pubsub payload: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel(event), payload).Err(); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, event string) (<-chan any, error) {
	sub := r.client.Subscribe(ctx, r.channel(event))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe to redis: %w", err)
	}

	out := make(chan any, DefaultBuffer)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var payload any
				if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
					r.log.Warn("pubsub: unmarshal error on channel ", msg.Channel, ": ", err)
					continue
				}
				select {
				case out <- payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
