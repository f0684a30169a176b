package session

import (
	"ctchen222/tateti/internal/bot"
	"ctchen222/tateti/internal/game"
	"time"
)

// State is a step of the session state machine.
type State string

const (
	StateWaitingForHuman State = "waiting_for_human"
	StateEvaluating      State = "evaluating"
	StateWaitingForBot   State = "waiting_for_bot"
	StateFinished        State = "finished"
)

// Snapshot is a point-in-time copy of a session. It is what gets rendered,
// persisted and handed to listeners.
type Snapshot struct {
	ID         string         `json:"id"`
	GameID     string         `json:"game_id"`
	PlayerID   string         `json:"player_id"`
	Board      game.Board     `json:"board"`
	HumanMark  game.Mark      `json:"human_mark"`
	BotMark    game.Mark      `json:"bot_mark"`
	Turn       game.Mark      `json:"turn"`
	State      State          `json:"state"`
	Active     bool           `json:"active"`
	Outcome    game.Outcome   `json:"outcome"`
	Difficulty bot.Difficulty `json:"difficulty"`
	Round      int            `json:"round"`
	Moves      int            `json:"moves"`
	Version    int64          `json:"version"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	s.Board = s.Board.Clone()
	if s.Outcome.Line != nil {
		line := *s.Outcome.Line
		s.Outcome.Line = &line
	}
	return s
}

// StatusText is the human-facing status line for a snapshot.
func StatusText(s Snapshot) string {
	switch s.State {
	case StateFinished:
		switch s.Outcome.Status {
		case game.Win:
			return string(s.Outcome.Winner) + " wins!"
		case game.Draw:
			return "It's a draw!"
		}
		return "Game over"
	case StateWaitingForBot, StateEvaluating:
		return "Bot's turn..."
	default:
		if s.Moves == 0 {
			return "Game started!"
		}
		return "Your turn! (" + string(s.HumanMark) + ")"
	}
}
