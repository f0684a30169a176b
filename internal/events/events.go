package events

import (
	"encoding/json"
	"time"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types
const (
	TypeGameFinished = "game_finished"
)

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// GameFinishedPayload is the payload for the "game_finished" event.
type GameFinishedPayload struct {
	GameID     string    `json:"game_id"`
	SessionID  string    `json:"session_id"`
	PlayerID   string    `json:"player_id"`
	HumanMark  string    `json:"human_mark"`
	BotMark    string    `json:"bot_mark"`
	Difficulty string    `json:"difficulty"`
	Outcome    string    `json:"outcome"`
	Winner     string    `json:"winner,omitempty"`
	Board      []string  `json:"board"`
	Moves      int       `json:"moves"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewEvent wraps a payload in an Event envelope.
func NewEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}
