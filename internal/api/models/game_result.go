package models

import "time"

// Result of a finished game from the human's point of view.
const (
	ResultHumanWin = "human_win"
	ResultBotWin   = "bot_win"
	ResultDraw     = "draw"
)

// GameResult is one finished game stored in the database.
type GameResult struct {
	ID         int64     `db:"id" json:"-"`
	GameID     string    `db:"game_id" json:"game_id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	PlayerID   string    `db:"player_id" json:"player_id"`
	HumanMark  string    `db:"human_mark" json:"human_mark"`
	BotMark    string    `db:"bot_mark" json:"bot_mark"`
	Difficulty string    `db:"difficulty" json:"difficulty"`
	Outcome    string    `db:"outcome" json:"outcome"`
	Winner     string    `db:"winner" json:"winner,omitempty"`
	Result     string    `db:"result" json:"result"`
	Board      string    `db:"board" json:"board"`
	Moves      int       `db:"moves" json:"moves"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// PlayerStats aggregates a player's finished games.
type PlayerStats struct {
	PlayerID string `db:"player_id" json:"player_id"`
	Games    int    `db:"games" json:"games"`
	Wins     int    `db:"wins" json:"wins"`
	Losses   int    `db:"losses" json:"losses"`
	Draws    int    `db:"draws" json:"draws"`
}

// HistoryQuery is the query string of the game history endpoint.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
