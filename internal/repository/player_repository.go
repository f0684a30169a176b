package repository

import (
	"context"
	"ctchen222/tateti/internal/player"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("repository")

// PlayerRepository tracks which players are connected and to which session.
type PlayerRepository interface {
	MarkConnected(ctx context.Context, id, sessionID string) error
	MarkDisconnected(ctx context.Context, id string) error
}

type redisPlayerRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPlayerRepository creates a new Redis-based PlayerRepository.
func NewPlayerRepository(rdb *redis.Client, ttl time.Duration) PlayerRepository {
	return &redisPlayerRepository{
		rdb: rdb,
		ttl: ttl,
	}
}

func playerKey(id string) string {
	return fmt.Sprintf("player:%s", id)
}

// MarkConnected records that a player is online in the given session.
func (r *redisPlayerRepository) MarkConnected(ctx context.Context, id, sessionID string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.MarkConnected")
	defer span.End()

	key := playerKey(id)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, key, "session_id", sessionID)
	pipe.HSet(ctx, key, "connection_status", string(player.StatusConnected))
	pipe.HSet(ctx, key, "last_seen", time.Now().UTC().Format(time.RFC3339))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// MarkDisconnected records that a player's socket went away.
func (r *redisPlayerRepository) MarkDisconnected(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.MarkDisconnected")
	defer span.End()

	key := playerKey(id)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, key, "connection_status", string(player.StatusDisconnected))
	pipe.HSet(ctx, key, "last_seen", time.Now().UTC().Format(time.RFC3339))
	_, err := pipe.Exec(ctx)
	return err
}
