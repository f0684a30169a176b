package session

import (
	"context"
	"ctchen222/tateti/internal/bot"
	"ctchen222/tateti/internal/events"
	"ctchen222/tateti/internal/game"
	"errors"
)

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=session

var ErrSnapshotNotFound = errors.New("session snapshot not found")

// MoveCalculator defines an interface for an agent that can calculate the bot's move.
type MoveCalculator interface {
	CalculateNextMove(board game.Board, botMark, opponentMark game.Mark, difficulty bot.Difficulty) (bot.Decision, error)
}

// Store persists snapshots so a player can resume after reconnecting.
// Load returns ErrSnapshotNotFound when the player has no stored session.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, playerID string) (*Snapshot, error)
	Delete(ctx context.Context, playerID string) error
}

// Publisher announces finished games.
type Publisher interface {
	PublishGameFinished(ctx context.Context, payload *events.GameFinishedPayload) error
}

// Listener receives every committed snapshot, in version order.
type Listener func(snap Snapshot)
