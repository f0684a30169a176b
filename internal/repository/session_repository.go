package repository

import (
	"context"
	"ctchen222/tateti/internal/bot"
	"ctchen222/tateti/internal/game"
	"ctchen222/tateti/internal/session"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Redis hash fields of a stored session.
const (
	FieldID         = "id"
	FieldGameID     = "game_id"
	FieldBoard      = "board"
	FieldHumanMark  = "human_mark"
	FieldBotMark    = "bot_mark"
	FieldTurn       = "turn"
	FieldState      = "state"
	FieldActive     = "active"
	FieldOutcome    = "outcome"
	FieldDifficulty = "difficulty"
	FieldRound      = "round"
	FieldMoves      = "moves"
	FieldVersion    = "version"
	FieldUpdatedAt  = "updated_at"
)

// SessionRepository stores session snapshots keyed by player.
type SessionRepository interface {
	session.Store
}

type redisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionRepository creates a new Redis-based SessionRepository. Stored
// sessions expire after ttl without activity; a zero ttl keeps them forever.
func NewSessionRepository(rdb *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(playerID string) string {
	return fmt.Sprintf("session:%s", playerID)
}

// Save writes the whole snapshot and refreshes its expiry.
func (r *redisSessionRepository) Save(ctx context.Context, snap *session.Snapshot) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Save", trace.WithAttributes(
		attribute.String("session.id", snap.ID),
		attribute.Int64("session.version", snap.Version),
	))
	defer span.End()

	boardJSON, err := json.Marshal(snap.Board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}
	outcomeJSON, err := json.Marshal(snap.Outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	key := sessionKey(snap.PlayerID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		FieldID:         snap.ID,
		FieldGameID:     snap.GameID,
		FieldBoard:      boardJSON,
		FieldHumanMark:  string(snap.HumanMark),
		FieldBotMark:    string(snap.BotMark),
		FieldTurn:       string(snap.Turn),
		FieldState:      string(snap.State),
		FieldActive:     strconv.FormatBool(snap.Active),
		FieldOutcome:    outcomeJSON,
		FieldDifficulty: string(snap.Difficulty),
		FieldRound:      snap.Round,
		FieldMoves:      snap.Moves,
		FieldVersion:    snap.Version,
		FieldUpdatedAt:  snap.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save session")
		return fmt.Errorf("failed to save session in redis: %w", err)
	}
	return nil
}

// Load returns session.ErrSnapshotNotFound when nothing is stored for the player.
func (r *redisSessionRepository) Load(ctx context.Context, playerID string) (*session.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.Load", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, sessionKey(playerID)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load session")
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	if len(data) == 0 {
		return nil, session.ErrSnapshotNotFound
	}

	snap, err := decodeSnapshot(playerID, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Corrupt session hash")
		return nil, err
	}
	return snap, nil
}

// Delete removes the stored session for the player.
func (r *redisSessionRepository) Delete(ctx context.Context, playerID string) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Delete", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	return r.rdb.Del(ctx, sessionKey(playerID)).Err()
}

func decodeSnapshot(playerID string, data map[string]string) (*session.Snapshot, error) {
	snap := &session.Snapshot{
		ID:         data[FieldID],
		GameID:     data[FieldGameID],
		PlayerID:   playerID,
		HumanMark:  game.Mark(data[FieldHumanMark]),
		BotMark:    game.Mark(data[FieldBotMark]),
		Turn:       game.Mark(data[FieldTurn]),
		State:      session.State(data[FieldState]),
		Difficulty: bot.ParseDifficulty(data[FieldDifficulty]),
	}

	if err := json.Unmarshal([]byte(data[FieldBoard]), &snap.Board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	if err := snap.Board.Validate(); err != nil {
		return nil, fmt.Errorf("stored board for player %s: %w", playerID, err)
	}
	if err := json.Unmarshal([]byte(data[FieldOutcome]), &snap.Outcome); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
	}

	var err error
	if snap.Active, err = strconv.ParseBool(data[FieldActive]); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FieldActive, err)
	}
	if snap.Round, err = strconv.Atoi(data[FieldRound]); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FieldRound, err)
	}
	if snap.Moves, err = strconv.Atoi(data[FieldMoves]); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FieldMoves, err)
	}
	if snap.Version, err = strconv.ParseInt(data[FieldVersion], 10, 64); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FieldVersion, err)
	}
	if snap.UpdatedAt, err = time.Parse(time.RFC3339Nano, data[FieldUpdatedAt]); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FieldUpdatedAt, err)
	}
	return snap, nil
}
