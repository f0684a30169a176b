package repository

import (
	"context"
	"ctchen222/tateti/internal/api/models"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ResultRepository defines the interface for finished game data operations.
type ResultRepository interface {
	SaveResult(ctx context.Context, result *models.GameResult) error
	GetStats(ctx context.Context, playerID string) (*models.PlayerStats, error)
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]models.GameResult, error)
}

type sqliteResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new SQLite-based ResultRepository.
func NewResultRepository(db *sqlx.DB) ResultRepository {
	return &sqliteResultRepository{db: db}
}

// SaveResult inserts a finished game. A game that is already stored is left untouched.
func (r *sqliteResultRepository) SaveResult(ctx context.Context, result *models.GameResult) error {
	query := `INSERT OR IGNORE INTO game_results
		(game_id, session_id, player_id, human_mark, bot_mark, difficulty, outcome, winner, result, board, moves, finished_at)
		VALUES
		(:game_id, :session_id, :player_id, :human_mark, :bot_mark, :difficulty, :outcome, :winner, :result, :board, :moves, :finished_at)`
	ctx, span := tracer.Start(ctx, "repository.SaveResult", trace.WithAttributes(
		attribute.String("game.id", result.GameID),
		attribute.String("player.id", result.PlayerID),
	))
	defer span.End()

	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save game result")
		return fmt.Errorf("failed to save game result: %w", err)
	}
	return nil
}

// GetStats counts a player's wins, losses and draws.
func (r *sqliteResultRepository) GetStats(ctx context.Context, playerID string) (*models.PlayerStats, error) {
	stats := models.PlayerStats{PlayerID: playerID}
	query := `SELECT
		COUNT(*) AS games,
		COALESCE(SUM(CASE WHEN result = ? THEN 1 ELSE 0 END), 0) AS wins,
		COALESCE(SUM(CASE WHEN result = ? THEN 1 ELSE 0 END), 0) AS losses,
		COALESCE(SUM(CASE WHEN result = ? THEN 1 ELSE 0 END), 0) AS draws
		FROM game_results WHERE player_id = ?`
	err := r.db.GetContext(ctx, &stats, query, models.ResultHumanWin, models.ResultBotWin, models.ResultDraw, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for player: %w", err)
	}
	return &stats, nil
}

// ListByPlayer returns the player's most recent games first.
func (r *sqliteResultRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]models.GameResult, error) {
	ctx, span := tracer.Start(ctx, "repository.ListByPlayer", trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.Int("limit", limit),
	))
	defer span.End()

	results := []models.GameResult{}
	query := `SELECT id, game_id, session_id, player_id, human_mark, bot_mark, difficulty, outcome, winner, result, board, moves, finished_at
		FROM game_results WHERE player_id = ? ORDER BY finished_at DESC, id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &results, query, playerID, limit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list games")
		return nil, fmt.Errorf("failed to list games for player: %w", err)
	}
	return results, nil
}
