package proto

import "ctchen222/tateti/internal/game"

// Client message types.
const (
	TypeMove    = "move"
	TypeRestart = "restart"
)

// Server message types.
const (
	TypeAssignment = "assignment"
	TypeUpdate     = "update"
	TypeError      = "error"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type string `json:"type" validate:"required,oneof=move restart"`
	Cell *int   `json:"cell,omitempty" validate:"omitempty,min=0,max=8"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type    string      `json:"type" validate:"required"`
	Reason  string      `json:"reason,omitempty"`
	Board   []game.Mark `json:"board,omitempty"`
	Turn    game.Mark   `json:"turn,omitempty"`
	State   string      `json:"state,omitempty"`
	Status  string      `json:"status,omitempty"`
	Outcome game.Status `json:"outcome,omitempty"`
	Winner  game.Mark   `json:"winner,omitempty"`
	Line    *game.Line  `json:"line,omitempty"`
	Round   int         `json:"round,omitempty"`
}

// PlayerAssignmentMessage informs a player of their assigned mark.
type PlayerAssignmentMessage struct {
	Type       string    `json:"type"`
	PlayerID   string    `json:"playerId,omitempty"`
	SessionID  string    `json:"sessionId,omitempty"`
	Mark       game.Mark `json:"mark"`
	Difficulty string    `json:"difficulty,omitempty"`
}
