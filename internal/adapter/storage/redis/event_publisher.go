package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"wallet-ledger/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// EventPublisher implements ports.EventPublisher by publishing wallet
// events as JSON on a redis channel. The notification collaborator
// subscribes to the channel and handles delivery; this side is
// fire-and-forget by contract.
type EventPublisher struct {
	client  *goredis.Client
	channel string
}

// NewEventPublisher creates a redis-backed event publisher.
func NewEventPublisher(client *goredis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// Publish serializes the event and publishes it on the channel.
func (p *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal wallet event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish wallet event: %w", err)
	}
	return nil
}
