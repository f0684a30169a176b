package room

import (
	"context"
	"ctchen222/tateti/internal/session"
	"ctchen222/tateti/internal/validator"
	"ctchen222/tateti/pkg/proto"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errMissingCell = errors.New("move needs a cell")

// HandleMessage handles a message from the player. It acts as a dispatcher.
// Rejected input is answered with an error message; the session state is
// pushed to the player by the session listener.
func (r *Room) HandleMessage(ctx context.Context, rawMessage []byte) {
	ctx, span := tracer.Start(ctx, "room.HandleMessage", trace.WithAttributes(
		attribute.String("player.id", r.Player.ID),
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(rawMessage, &message); err != nil {
		slog.WarnContext(ctx, "error unmarshalling message", "player.id", r.Player.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		r.sendError("malformed message")
		return
	}

	if err := validator.Check(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "player.id", r.Player.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		r.sendError(err.Error())
		return
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	var err error
	switch message.Type {
	case proto.TypeMove:
		err = r.handleMove(ctx, &message)
	case proto.TypeRestart:
		err = r.game.Restart(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Message rejected")
		r.sendError(reason(err))
	}
}

func (r *Room) handleMove(ctx context.Context, message *proto.ClientToServerMessage) error {
	if message.Cell == nil {
		return errMissingCell
	}
	if err := r.game.PlaceMark(ctx, *message.Cell); err != nil {
		slog.DebugContext(ctx, "Move rejected", "player.id", r.Player.ID, "cell", *message.Cell, "error", err)
		return err
	}
	return nil
}

var clientErrors = []error{
	session.ErrInvalidCell,
	session.ErrCellOccupied,
	session.ErrNotYourTurn,
	session.ErrGameFinished,
	session.ErrSessionClosed,
	errMissingCell,
}

// reason is the client facing text for a rejected message.
func reason(err error) string {
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}

func (r *Room) sendError(reason string) {
	r.Send(&proto.ServerToClientMessage{Type: proto.TypeError, Reason: reason})
}
