package service

import (
	"context"
	"ctchen222/tateti/internal/api/models"
	"ctchen222/tateti/internal/api/repository"
	"ctchen222/tateti/internal/events"
	"log/slog"
	"strings"
)

const (
	DefaultHistoryLimit = 20
	emptyCell           = "."
)

// ResultService records finished games and answers history queries.
type ResultService interface {
	RecordGameFinished(ctx context.Context, payload *events.GameFinishedPayload) error
	Stats(ctx context.Context, playerID string) (*models.PlayerStats, error)
	History(ctx context.Context, playerID string, limit int) ([]models.GameResult, error)
}

type resultService struct {
	resultRepo repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo repository.ResultRepository) ResultService {
	return &resultService{resultRepo: resultRepo}
}

// RecordGameFinished stores a game_finished event.
func (s *resultService) RecordGameFinished(ctx context.Context, payload *events.GameFinishedPayload) error {
	result := &models.GameResult{
		GameID:     payload.GameID,
		SessionID:  payload.SessionID,
		PlayerID:   payload.PlayerID,
		HumanMark:  payload.HumanMark,
		BotMark:    payload.BotMark,
		Difficulty: payload.Difficulty,
		Outcome:    payload.Outcome,
		Winner:     payload.Winner,
		Result:     humanResult(payload),
		Board:      encodeBoard(payload.Board),
		Moves:      payload.Moves,
		FinishedAt: payload.FinishedAt.UTC(),
	}
	if err := s.resultRepo.SaveResult(ctx, result); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Game result recorded", "game.id", result.GameID, "player.id", result.PlayerID, "result", result.Result)
	return nil
}

// Stats returns the player's aggregate record.
func (s *resultService) Stats(ctx context.Context, playerID string) (*models.PlayerStats, error) {
	return s.resultRepo.GetStats(ctx, playerID)
}

// History returns the player's latest games. A non-positive limit means DefaultHistoryLimit.
func (s *resultService) History(ctx context.Context, playerID string, limit int) ([]models.GameResult, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.resultRepo.ListByPlayer(ctx, playerID, limit)
}

func humanResult(p *events.GameFinishedPayload) string {
	switch {
	case p.Outcome == "draw":
		return models.ResultDraw
	case p.Winner == p.HumanMark:
		return models.ResultHumanWin
	default:
		return models.ResultBotWin
	}
}

// encodeBoard renders the cells as a nine character string, "." for empty.
func encodeBoard(cells []string) string {
	var b strings.Builder
	for _, c := range cells {
		if c == "" {
			c = emptyCell
		}
		b.WriteString(c)
	}
	return b.String()
}
