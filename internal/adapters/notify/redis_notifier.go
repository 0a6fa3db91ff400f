package notify

import (
	"context"
	"errors"
	"fmt"
	"mail-route-tracker/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier carries change signals over a Redis pub/sub channel so that every
// server instance sharing a SQL store sees the same change feed.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(redisURL, channel string) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis notifier: parse url: %w", err)
	}
	return NewRedisNotifierFromClient(redis.NewClient(opts), channel), nil
}

func NewRedisNotifierFromClient(client *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = "streets:changed"
	}
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Publish(ctx context.Context) (err error) {
	defer obs.Time(ctx, "redis.Publish")(&err)

	if n.client == nil {
		return errors.New("redis notifier: client is nil")
	}
	if err := n.client.Publish(ctx, n.channel, "changed").Err(); err != nil {
		return fmt.Errorf("redis notifier: publish %q: %w", n.channel, err)
	}
	return nil
}

// Listen subscribes and waits for the subscription to be confirmed, so a Publish
// issued after Listen returns is never missed.
func (n *RedisNotifier) Listen(ctx context.Context) (<-chan struct{}, error) {
	if n.client == nil {
		return nil, errors.New("redis notifier: client is nil")
	}

	sub := n.client.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis notifier: subscribe %q: %w", n.channel, err)
	}

	msgs := sub.Channel()
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
