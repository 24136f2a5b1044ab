package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// HealthCheck reports redis connectivity for the health endpoint.
type HealthCheck struct {
	client *goredis.Client
}

func NewHealthCheck(client *goredis.Client) *HealthCheck {
	return &HealthCheck{client: client}
}

func (h *HealthCheck) Name() string {
	return "redis"
}

func (h *HealthCheck) Check(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}
