package session

import (
	"context"
	"ctchen222/tateti/internal/bot"
	"ctchen222/tateti/internal/events"
	"ctchen222/tateti/internal/game"
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

var (
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrGameFinished  = errors.New("game is already finished")
	ErrSessionClosed = errors.New("session is closed")
)

// deps are shared by all sessions of a Manager.
type deps struct {
	calculator MoveCalculator
	store      Store
	publisher  Publisher
	botDelay   time.Duration
	metrics    *instruments
	now        func() time.Time
}

// Session is one player's game against the bot. The human moves through
// PlaceMark; the bot answers on a timer after botDelay.
type Session struct {
	mu       sync.Mutex
	snap     Snapshot
	closed   bool
	timer    *time.Timer
	listener Listener
	deps     *deps

	// emitMu serialises persistence and notification so they happen in version order.
	emitMu      sync.Mutex
	lastEmitted int64
	discarded   bool
}

func newSession(d *deps, id, playerID string, difficulty bot.Difficulty) *Session {
	s := &Session{deps: d}
	s.snap = Snapshot{
		ID:         id,
		PlayerID:   playerID,
		HumanMark:  game.PlayerX,
		BotMark:    game.PlayerO,
		Difficulty: difficulty,
	}
	s.resetLocked()
	return s
}

func restoreSession(d *deps, snap *Snapshot) *Session {
	s := &Session{deps: d, snap: snap.Clone()}
	s.lastEmitted = snap.Version
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.ID
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// SetListener replaces the listener that receives updates.
func (s *Session) SetListener(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// PlaceMark applies the human's move, evaluates the board and, if the game
// continues, schedules the bot's reply.
func (s *Session) PlaceMark(ctx context.Context, cell int) error {
	ctx, span := tracer.Start(ctx, "session.PlaceMark", trace.WithAttributes(
		attribute.String("session.id", s.ID()),
		attribute.Int("move.cell", cell),
	))
	defer span.End()

	s.mu.Lock()
	if err := s.checkHumanMoveLocked(cell); err != nil {
		s.mu.Unlock()
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	s.snap.Board[cell] = s.snap.HumanMark
	s.snap.Moves++
	s.snap.State = StateEvaluating
	err := s.advanceLocked(ctx, s.snap.HumanMark)
	snap, listener := s.commitLocked()
	s.mu.Unlock()

	s.deps.metrics.movePlaced(ctx, "human")
	s.emit(ctx, snap, listener)

	if err != nil {
		s.discard(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Board evaluation failed")
		return err
	}
	return nil
}

// Restart cancels any pending bot move and starts a fresh game on the same session.
func (s *Session) Restart(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session.Restart", trace.WithAttributes(
		attribute.String("session.id", s.ID()),
	))
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		span.SetStatus(codes.Error, ErrSessionClosed.Error())
		return ErrSessionClosed
	}
	s.stopTimerLocked()
	s.resetLocked()
	snap, listener := s.commitLocked()
	s.mu.Unlock()

	slog.InfoContext(ctx, "Session restarted", "session.id", snap.ID, "player.id", snap.PlayerID, "round", snap.Round)
	s.deps.metrics.gameStarted(ctx, snap.Difficulty)
	s.emit(ctx, snap, listener)
	return nil
}

// Close cancels any pending bot move and rejects further moves.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.closed = true
}

// botTurn runs when the bot delay elapses. A restart or close since the move
// was scheduled makes it a no-op.
func (s *Session) botTurn(round int) {
	ctx, span := tracer.Start(context.Background(), "session.botTurn")
	defer span.End()

	s.mu.Lock()
	if s.closed || !s.snap.Active || s.snap.Round != round || s.snap.State != StateWaitingForBot {
		id := s.snap.ID
		s.mu.Unlock()
		slog.DebugContext(ctx, "Pending bot move discarded", "session.id", id, "round", round)
		span.SetAttributes(attribute.Bool("bot.cancelled", true))
		return
	}
	s.timer = nil
	span.SetAttributes(attribute.String("session.id", s.snap.ID), attribute.String("bot.difficulty", string(s.snap.Difficulty)))

	decision, err := s.deps.calculator.CalculateNextMove(s.snap.Board.Clone(), s.snap.BotMark, s.snap.HumanMark, s.snap.Difficulty)
	if err == nil && (!game.InRange(decision.Cell) || s.snap.Board[decision.Cell] != game.Empty) {
		err = fmt.Errorf("%w: bot chose cell %d", ErrInvalidCell, decision.Cell)
	}
	if err != nil {
		s.failLocked()
		id := s.snap.ID
		s.mu.Unlock()
		slog.ErrorContext(ctx, "Bot could not move, closing session", "session.id", id, "error", err)
		s.discard(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bot move failed")
		return
	}

	s.snap.Board[decision.Cell] = s.snap.BotMark
	s.snap.Moves++
	s.snap.State = StateEvaluating
	err = s.advanceLocked(ctx, s.snap.BotMark)
	snap, listener := s.commitLocked()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("move.cell", decision.Cell), attribute.String("bot.rule", string(decision.Rule)))
	slog.DebugContext(ctx, "Bot moved", "session.id", snap.ID, "cell", decision.Cell, "rule", decision.Rule)
	s.deps.metrics.movePlaced(ctx, "bot")
	s.deps.metrics.botDecided(ctx, decision.Rule)
	s.emit(ctx, snap, listener)

	if err != nil {
		s.discard(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Board evaluation failed")
	}
}

// resume picks the state machine back up after a snapshot was restored.
func (s *Session) resume(ctx context.Context) error {
	s.mu.Lock()
	if !s.snap.Active {
		s.mu.Unlock()
		return nil
	}
	mover := s.snap.Turn.Opponent()
	if mover == game.Empty {
		mover = s.snap.BotMark
	}
	s.snap.State = StateEvaluating
	err := s.advanceLocked(ctx, mover)
	snap, listener := s.commitLocked()
	s.mu.Unlock()

	s.emit(ctx, snap, listener)
	if err != nil {
		s.discard(ctx)
	}
	return err
}

func (s *Session) checkHumanMoveLocked(cell int) error {
	switch {
	case s.closed:
		return ErrSessionClosed
	case !s.snap.Active || s.snap.State == StateFinished:
		return ErrGameFinished
	case s.snap.State != StateWaitingForHuman || s.snap.Turn != s.snap.HumanMark:
		return ErrNotYourTurn
	case !game.InRange(cell):
		return fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	case s.snap.Board[cell] != game.Empty:
		return fmt.Errorf("%w: cell %d", ErrCellOccupied, cell)
	}
	return nil
}

// advanceLocked evaluates the board after mover placed a mark and moves the
// state machine to finished, waiting_for_bot or waiting_for_human.
func (s *Session) advanceLocked(ctx context.Context, mover game.Mark) error {
	outcome, err := game.Evaluate(s.snap.Board)
	if err != nil {
		s.failLocked()
		slog.ErrorContext(ctx, "Board evaluation failed, closing session", "session.id", s.snap.ID, "error", err)
		return fmt.Errorf("evaluate board: %w", err)
	}
	s.snap.Outcome = outcome

	if outcome.IsOver() {
		s.snap.State = StateFinished
		s.snap.Active = false
		s.snap.Turn = game.Empty
		return nil
	}

	s.snap.Turn = mover.Opponent()
	if s.snap.Turn == s.snap.BotMark {
		s.snap.State = StateWaitingForBot
		s.scheduleBotLocked()
		return nil
	}
	s.snap.State = StateWaitingForHuman
	return nil
}

func (s *Session) scheduleBotLocked() {
	s.stopTimerLocked()
	round := s.snap.Round
	s.timer = time.AfterFunc(s.deps.botDelay, func() {
		s.botTurn(round)
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) resetLocked() {
	s.snap.GameID = uuid.New().String()
	s.snap.Board = game.NewBoard()
	s.snap.Turn = s.snap.HumanMark
	s.snap.State = StateWaitingForHuman
	s.snap.Active = true
	s.snap.Outcome = game.Outcome{Status: game.InProgress}
	s.snap.Moves = 0
	s.snap.Round++
}

func (s *Session) failLocked() {
	s.stopTimerLocked()
	s.closed = true
	s.snap.Active = false
}

func (s *Session) commit() (Snapshot, Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked()
}

func (s *Session) commitLocked() (Snapshot, Listener) {
	s.snap.Version++
	s.snap.UpdatedAt = s.deps.now()
	return s.snap.Clone(), s.listener
}

// emit persists and announces a committed snapshot. A snapshot older than
// the last emitted one is neither saved nor shown, but a finished game is
// still recorded.
func (s *Session) emit(ctx context.Context, snap Snapshot, listener Listener) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	if snap.Version > s.lastEmitted {
		s.lastEmitted = snap.Version

		if s.deps.store != nil && !s.discarded {
			if err := s.deps.store.Save(ctx, &snap); err != nil {
				slog.ErrorContext(ctx, "Failed to save session snapshot", "session.id", snap.ID, "error", err)
			}
		}

		if listener != nil {
			listener(snap)
		}
	} else {
		slog.DebugContext(ctx, "Superseded snapshot not saved", "session.id", snap.ID, "version", snap.Version, "last", s.lastEmitted)
	}

	if snap.State != StateFinished {
		return
	}

	s.deps.metrics.gameFinished(ctx, snap.Outcome, snap.HumanMark)
	slog.InfoContext(ctx, "Game finished", "session.id", snap.ID, "game.id", snap.GameID, "outcome", snap.Outcome.Status, "winner", snap.Outcome.Winner)

	if s.deps.publisher != nil {
		if err := s.deps.publisher.PublishGameFinished(ctx, finishedPayload(snap)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish game_finished event", "session.id", snap.ID, "error", err)
		}
	}
}

// discard removes the stored snapshot and stops saving new ones, so the
// player's next Open starts a fresh game instead of resuming this one.
func (s *Session) discard(ctx context.Context) {
	playerID := s.Snapshot().PlayerID

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.discarded = true
	if s.deps.store == nil {
		return
	}
	if err := s.deps.store.Delete(ctx, playerID); err != nil {
		slog.ErrorContext(ctx, "Failed to delete session snapshot", "player.id", playerID, "error", err)
	}
}

func finishedPayload(snap Snapshot) *events.GameFinishedPayload {
	board := make([]string, len(snap.Board))
	for i, m := range snap.Board {
		board[i] = string(m)
	}
	return &events.GameFinishedPayload{
		GameID:     snap.GameID,
		SessionID:  snap.ID,
		PlayerID:   snap.PlayerID,
		HumanMark:  string(snap.HumanMark),
		BotMark:    string(snap.BotMark),
		Difficulty: string(snap.Difficulty),
		Outcome:    string(snap.Outcome.Status),
		Winner:     string(snap.Outcome.Winner),
		Board:      board,
		Moves:      snap.Moves,
		FinishedAt: snap.UpdatedAt,
	}
}
