package hub

import (
	"context"
	"ctchen222/tateti/internal/hub/types"
	"ctchen222/tateti/internal/repository"
	"ctchen222/tateti/internal/room"
	"ctchen222/tateti/internal/session"
	"log/slog"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("hub")

// Hub tracks connected players and binds each one to their session.
// All registry changes happen on the Run goroutine.
type Hub struct {
	sessions   *session.Manager
	playerRepo repository.PlayerRepository
	rooms      map[string]*room.Room
	register   chan *types.RegistrationRequest
	unregister chan *room.Room
	done       chan struct{}
}

// NewHub creates a new hub. playerRepo may be nil, in which case presence is not recorded.
func NewHub(sessions *session.Manager, playerRepo repository.PlayerRepository) *Hub {
	return &Hub{
		sessions:   sessions,
		playerRepo: playerRepo,
		rooms:      make(map[string]*room.Room),
		register:   make(chan *types.RegistrationRequest),
		unregister: make(chan *room.Room),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is cancelled, then closes every room
// and session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	slog.InfoContext(ctx, "Hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown(context.WithoutCancel(ctx))
			return

		case req := <-h.register:
			h.handleRegistration(req)

		case r := <-h.unregister:
			h.handleUnregistration(ctx, r)
		}
	}
}

// Register queues a player registration. It gives up if the hub has stopped.
func (h *Hub) Register(req *types.RegistrationRequest) bool {
	select {
	case h.register <- req:
		return true
	case <-h.done:
		return false
	}
}

// unregisterRoom reports a closed room to the Run loop.
func (h *Hub) unregisterRoom(r *room.Room) {
	select {
	case h.unregister <- r:
	case <-h.done:
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) shutdown(ctx context.Context) {
	slog.InfoContext(ctx, "Hub stopping", "rooms.count", len(h.rooms))
	for id, r := range h.rooms {
		r.Close()
		delete(h.rooms, id)
	}
	h.sessions.Shutdown()
}
