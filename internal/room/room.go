package room

import (
	"context"
	"ctchen222/tateti/internal/player"
	"ctchen222/tateti/internal/session"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
)

const (
	heartbeatInterval = 10 * time.Second
	pongWait          = 2 * heartbeatInterval
	writeWait         = 5 * time.Second
	maxMessageSize    = 512
	sendBuffer        = 16
)

var tracer = otel.Tracer("room")

// Game is the part of a session a room drives.
type Game interface {
	ID() string
	Snapshot() session.Snapshot
	PlaceMark(ctx context.Context, cell int) error
	Restart(ctx context.Context) error
}

// Room binds one connected player to their game session. It owns the
// player's socket: all writes go through the send queue.
type Room struct {
	ID     string
	Player *player.Player
	game   Game

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

// NewRoom creates a room for p playing g.
func NewRoom(p *player.Player, g Game) *Room {
	return &Room{
		ID:     g.ID(),
		Player: p,
		game:   g,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Start launches the socket pumps. unregister is called once the player's
// socket is gone.
func (r *Room) Start(unregister func(*Room)) {
	go r.WritePump()
	go func() {
		r.ReadPump()
		r.Close()
		unregister(r)
	}()
}

// Done is closed when the room shuts down.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Close stops the pumps and closes the socket. It is safe to call more than once.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.Player.Status = player.StatusDisconnected
		r.Player.LastSeen = time.Now()
		r.mu.Unlock()

		close(r.done)
		if err := r.Player.Conn.Close(); err != nil {
			slog.Debug("Error closing player connection", "player.id", r.Player.ID, "error", err)
		}
	})
}

// enqueue hands data to the write pump. A player whose queue is full is too
// slow to keep up and gets disconnected.
func (r *Room) enqueue(data []byte) {
	select {
	case <-r.done:
		return
	default:
	}

	select {
	case r.send <- data:
	case <-r.done:
	default:
		slog.Warn("Send queue full, dropping slow player", "player.id", r.Player.ID, "room.id", r.ID)
		r.Close()
	}
}
