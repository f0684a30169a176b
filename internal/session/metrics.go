package session

import (
	"context"
	"ctchen222/tateti/internal/bot"
	"ctchen222/tateti/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("session")
	meter  = otel.Meter("session")
)

type instruments struct {
	gamesStarted  metric.Int64Counter
	gamesFinished metric.Int64Counter
	moves         metric.Int64Counter
	botDecisions  metric.Int64Counter
}

func newInstruments() *instruments {
	// Counter creation only fails on invalid instrument names.
	started, _ := meter.Int64Counter("tateti.games.started", metric.WithDescription("Games started, including restarts"))
	finished, _ := meter.Int64Counter("tateti.games.finished", metric.WithDescription("Games finished by outcome"))
	moves, _ := meter.Int64Counter("tateti.moves", metric.WithDescription("Marks placed by player kind"))
	decisions, _ := meter.Int64Counter("tateti.bot.decision", metric.WithDescription("Bot moves by priority rule"))
	return &instruments{
		gamesStarted:  started,
		gamesFinished: finished,
		moves:         moves,
		botDecisions:  decisions,
	}
}

func (i *instruments) gameStarted(ctx context.Context, difficulty bot.Difficulty) {
	i.gamesStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("bot.difficulty", string(difficulty))))
}

func (i *instruments) gameFinished(ctx context.Context, outcome game.Outcome, humanMark game.Mark) {
	result := string(outcome.Status)
	if outcome.Status == game.Win {
		result = "bot_win"
		if outcome.Winner == humanMark {
			result = "human_win"
		}
	}
	i.gamesFinished.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", result)))
}

func (i *instruments) movePlaced(ctx context.Context, kind string) {
	i.moves.Add(ctx, 1, metric.WithAttributes(attribute.String("player.kind", kind)))
}

func (i *instruments) botDecided(ctx context.Context, rule bot.Rule) {
	i.botDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("bot.rule", string(rule))))
}
