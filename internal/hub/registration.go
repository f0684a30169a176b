package hub

import (
	"context"
	"ctchen222/tateti/internal/hub/types"
	"ctchen222/tateti/internal/room"
	"ctchen222/tateti/pkg/proto"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// handleRegistration opens the player's session and attaches a room to it.
// A player connecting again replaces their previous socket.
func (h *Hub) handleRegistration(req *types.RegistrationRequest) {
	ctx := req.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracer.Start(ctx, "hub.handleRegistration", trace.WithAttributes(
		attribute.String("player.id", req.Player.ID),
		attribute.String("bot.difficulty", string(req.Difficulty)),
	))
	defer span.End()

	s, err := h.sessions.Open(ctx, req.Player.ID, req.Difficulty)
	if err != nil {
		slog.ErrorContext(ctx, "Could not open session", "player.id", req.Player.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not open session")
		rejectPlayer(ctx, req, "could not start a game")
		return
	}

	if old, ok := h.rooms[req.Player.ID]; ok {
		slog.InfoContext(ctx, "Replacing existing connection", "player.id", req.Player.ID)
		old.Close()
	}

	r := room.NewRoom(req.Player, s)
	h.rooms[req.Player.ID] = r
	s.SetListener(r.Update)
	r.Start(h.unregisterRoom)
	r.SendInitialState()

	span.SetAttributes(attribute.String("room.id", r.ID))
	slog.InfoContext(ctx, "Player joined", "player.id", req.Player.ID, "room.id", r.ID)

	if h.playerRepo != nil {
		if err := h.playerRepo.MarkConnected(ctx, req.Player.ID, r.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to record player presence", "player.id", req.Player.ID, "error", err)
			span.RecordError(err)
		}
	}
}

// handleUnregistration forgets a closed room. The session is closed too; its
// stored snapshot lets the player resume on the next connection.
func (h *Hub) handleUnregistration(ctx context.Context, r *room.Room) {
	ctx, span := tracer.Start(ctx, "hub.handleUnregistration", trace.WithAttributes(
		attribute.String("player.id", r.Player.ID),
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	current, ok := h.rooms[r.Player.ID]
	if !ok || current != r {
		// Superseded by a newer connection.
		return
	}
	delete(h.rooms, r.Player.ID)
	h.sessions.Close(ctx, r.Player.ID)
	slog.InfoContext(ctx, "Player left", "player.id", r.Player.ID, "room.id", r.ID)

	if h.playerRepo != nil {
		if err := h.playerRepo.MarkDisconnected(ctx, r.Player.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to record player disconnect", "player.id", r.Player.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to record player disconnect")
		}
	}
}

// rejectPlayer tells the player why they can't play and hangs up.
func rejectPlayer(ctx context.Context, req *types.RegistrationRequest, reason string) {
	data, err := json.Marshal(&proto.ServerToClientMessage{Type: proto.TypeError, Reason: reason})
	if err == nil {
		if err := req.Player.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.WarnContext(ctx, "Error sending rejection to player", "player.id", req.Player.ID, "error", err)
		}
	}
	req.Player.Conn.Close()
}
