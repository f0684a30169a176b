package room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Send marshals message and queues it for the player.
func (r *Room) Send(message any) {
	data, err := json.Marshal(message)
	if err != nil {
		slog.Error("error marshalling message", "room.id", r.ID, "error", err)
		return
	}
	r.enqueue(data)
}

// ReadPump reads messages from the player's socket until it fails or the room closes.
func (r *Room) ReadPump() {
	ctx, span := tracer.Start(context.Background(), "room.ReadPump", trace.WithAttributes(
		attribute.String("player.id", r.Player.ID),
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	conn := r.Player.Conn
	if c, ok := conn.(interface{ SetReadLimit(int64) }); ok {
		c.SetReadLimit(maxMessageSize)
	}
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		r.mu.Lock()
		r.Player.LastSeen = time.Now()
		r.mu.Unlock()
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "Player connection error", "player.id", r.Player.ID, "room.id", r.ID, "error", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, "Player connection error")
			} else {
				slog.InfoContext(ctx, "Player disconnected", "player.id", r.Player.ID, "room.id", r.ID)
			}
			return
		}
		r.HandleMessage(ctx, msg)
	}
}

// WritePump writes queued messages and heartbeat pings to the player's socket.
func (r *Room) WritePump() {
	pingTicker := time.NewTicker(heartbeatInterval)
	defer pingTicker.Stop()

	conn := r.Player.Conn
	for {
		select {
		case <-r.done:
			return

		case data := <-r.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				r.writeFailed(err)
				return
			}

		case <-pingTicker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Warn("Failed to send ping to player, assuming disconnect", "player.id", r.Player.ID, "error", err)
				r.Close()
				return
			}
		}
	}
}

func (r *Room) writeFailed(err error) {
	if !errors.Is(err, websocket.ErrCloseSent) {
		slog.Error("error writing message to player", "player.id", r.Player.ID, "room.id", r.ID, "error", err)
	}
	r.Close()
}
