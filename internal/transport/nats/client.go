package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rocketscienceinc/turnrelay/internal/entity"
)

const clientName = "turnrelay"

// Client publishes lifecycle events on a NATS subject.
type Client struct {
	conn    *nats.Conn
	subject string
}

func New(url, subject string) (*Client, error) {
	conn, err := nats.Connect(
		url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{
		conn:    conn,
		subject: subject,
	}, nil
}

func (that *Client) Name() string {
	return "nats"
}

// Publish sends the event as JSON. Core NATS publishes are buffered, so ctx
// only guards against publishing after the caller gave up.
func (that *Client) Publish(ctx context.Context, event *entity.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.conn.Publish(that.subject, data); err != nil {
		return fmt.Errorf("failed to publish event in NATS: %w", err)
	}

	return nil
}

func (that *Client) Close() error {
	if err := that.conn.Drain(); err != nil {
		that.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}

	return nil
}
