package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Service reports participant presence per project. The presence keyspace
// is written by the realtime collaboration layer; this service only reads.
type Service interface {
	CountActiveParticipants(ctx context.Context, projectID string) (int, error)
	IsHostPresent(ctx context.Context, projectID string) (bool, error)
}

type redisPresence struct {
	client *redis.Client
}

func NewRedisPresence(client *redis.Client) Service {
	return &redisPresence{client: client}
}

func participantsKey(projectID string) string {
	return fmt.Sprintf("presence:project:%s:participants", projectID)
}

func hostKey(projectID string) string {
	return fmt.Sprintf("presence:project:%s:host", projectID)
}

func (p *redisPresence) CountActiveParticipants(ctx context.Context, projectID string) (int, error) {
	n, err := p.client.SCard(ctx, participantsKey(projectID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return int(n), nil
}

func (p *redisPresence) IsHostPresent(ctx context.Context, projectID string) (bool, error) {
	// The realtime layer keeps the host key alive with a TTL heartbeat;
	// existence is presence.
	n, err := p.client.Exists(ctx, hostKey(projectID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check host presence: %w", err)
	}
	return n > 0, nil
}
