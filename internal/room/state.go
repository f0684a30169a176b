package room

import (
	"ctchen222/tateti/internal/session"
	"ctchen222/tateti/pkg/proto"
)

// UpdateMessage renders a snapshot for the client.
func UpdateMessage(snap session.Snapshot) *proto.ServerToClientMessage {
	return &proto.ServerToClientMessage{
		Type:    proto.TypeUpdate,
		Board:   snap.Board,
		Turn:    snap.Turn,
		State:   string(snap.State),
		Status:  session.StatusText(snap),
		Outcome: snap.Outcome.Status,
		Winner:  snap.Outcome.Winner,
		Line:    snap.Outcome.Line,
		Round:   snap.Round,
	}
}

// AssignmentMessage tells the player which mark they play.
func AssignmentMessage(snap session.Snapshot) *proto.PlayerAssignmentMessage {
	return &proto.PlayerAssignmentMessage{
		Type:       proto.TypeAssignment,
		PlayerID:   snap.PlayerID,
		SessionID:  snap.ID,
		Mark:       snap.HumanMark,
		Difficulty: string(snap.Difficulty),
	}
}

// Update is a session listener that pushes each snapshot to the player.
func (r *Room) Update(snap session.Snapshot) {
	r.Send(UpdateMessage(snap))
}

// SendInitialState sends the mark assignment followed by the current board.
func (r *Room) SendInitialState() {
	snap := r.game.Snapshot()
	r.Send(AssignmentMessage(snap))
	r.Send(UpdateMessage(snap))
}
