package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/turnrelay/internal/entity"
)

// Client publishes lifecycle events on a Redis pub/sub channel.
type Client struct {
	client  *redis.Client
	channel string
}

// New connects to addr and verifies the connection with PING.
func New(ctx context.Context, addr, channel string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(rdb, channel), nil
}

func NewWithClient(rdb *redis.Client, channel string) *Client {
	return &Client{
		client:  rdb,
		channel: channel,
	}
}

func (that *Client) Name() string {
	return "redis"
}

// Publish - sends the event as JSON to the channel.
func (that *Client) Publish(ctx context.Context, event *entity.Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, that.channel, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event in Redis: %w", err)
	}

	return nil
}

func (that *Client) Close() error {
	return that.client.Close()
}
