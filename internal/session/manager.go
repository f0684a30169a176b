package session

import (
	"context"
	"ctchen222/tateti/internal/bot"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultBotDelay = time.Second

// Manager owns the live sessions, one per player.
type Manager struct {
	mu                sync.Mutex
	sessions          map[string]*Session
	deps              *deps
	defaultDifficulty bot.Difficulty
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore persists snapshots and restores them when a player reconnects.
func WithStore(store Store) Option {
	return func(m *Manager) { m.deps.store = store }
}

// WithPublisher announces finished games.
func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.deps.publisher = p }
}

// WithBotDelay sets how long the bot waits before answering.
func WithBotDelay(d time.Duration) Option {
	return func(m *Manager) { m.deps.botDelay = d }
}

// WithDefaultDifficulty is used when Open is called without a difficulty.
func WithDefaultDifficulty(d bot.Difficulty) Option {
	return func(m *Manager) { m.defaultDifficulty = d }
}

func withClock(now func() time.Time) Option {
	return func(m *Manager) { m.deps.now = now }
}

// NewManager creates a Manager whose bots move with calculator.
func NewManager(calculator MoveCalculator, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		deps: &deps{
			calculator: calculator,
			botDelay:   defaultBotDelay,
			metrics:    newInstruments(),
			now:        time.Now,
		},
		defaultDifficulty: bot.Hard,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open returns the player's session. A live session is reused, a stored one
// is restored, and otherwise a new game starts. An empty difficulty means the
// manager default; it only applies to new sessions.
func (m *Manager) Open(ctx context.Context, playerID string, difficulty bot.Difficulty) (*Session, error) {
	ctx, span := tracer.Start(ctx, "session.Manager.Open", trace.WithAttributes(
		attribute.String("player.id", playerID),
	))
	defer span.End()

	if difficulty == "" {
		difficulty = m.defaultDifficulty
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[playerID]; ok && !s.Closed() {
		span.SetAttributes(attribute.String("session.origin", "live"))
		return s, nil
	}

	if m.deps.store != nil {
		snap, err := m.deps.store.Load(ctx, playerID)
		switch {
		case err == nil:
			s := restoreSession(m.deps, snap)
			if err := s.resume(ctx); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "Failed to resume stored session")
				return nil, fmt.Errorf("failed to resume session for player %s: %w", playerID, err)
			}
			m.sessions[playerID] = s
			span.SetAttributes(attribute.String("session.origin", "restored"), attribute.String("session.id", snap.ID))
			slog.InfoContext(ctx, "Session restored", "player.id", playerID, "session.id", snap.ID, "state", snap.State)
			return s, nil
		case errors.Is(err, ErrSnapshotNotFound):
		default:
			slog.WarnContext(ctx, "Could not load stored session, starting a new one", "player.id", playerID, "error", err)
			span.RecordError(err)
		}
	}

	s := newSession(m.deps, uuid.New().String(), playerID, difficulty)
	m.sessions[playerID] = s

	snap, listener := s.commit()
	m.deps.metrics.gameStarted(ctx, difficulty)
	s.emit(ctx, snap, listener)

	span.SetAttributes(attribute.String("session.origin", "new"), attribute.String("session.id", snap.ID))
	slog.InfoContext(ctx, "Session created", "player.id", playerID, "session.id", snap.ID, "bot.difficulty", difficulty)
	return s, nil
}

// Get returns the live session for a player.
func (m *Manager) Get(playerID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[playerID]
	return s, ok
}

// Close stops the player's live session and forgets it. A game still in
// play keeps its stored snapshot so the player can resume later; a finished
// one is removed from the store.
func (m *Manager) Close(ctx context.Context, playerID string) {
	m.mu.Lock()
	s, ok := m.sessions[playerID]
	delete(m.sessions, playerID)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.Close()
	if !s.Snapshot().Active {
		s.discard(ctx)
	}
}

// Shutdown closes every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
