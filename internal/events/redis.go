package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

// Publisher sends events to the global Redis channel.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a Publisher on rdb.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// PublishGameFinished announces a finished game.
func (p *Publisher) PublishGameFinished(ctx context.Context, payload *GameFinishedPayload) error {
	ctx, span := tracer.Start(ctx, "events.PublishGameFinished", trace.WithAttributes(
		attribute.String("game.id", payload.GameID),
		attribute.String("game.outcome", payload.Outcome),
	))
	defer span.End()

	event, err := NewEvent(TypeGameFinished, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal game_finished event")
		return fmt.Errorf("failed to marshal game_finished event: %w", err)
	}
	if err := p.rdb.Publish(ctx, EventsChannel, event).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish game_finished event")
		return fmt.Errorf("failed to publish game_finished event: %w", err)
	}
	return nil
}

// ResultRecorder stores finished games.
type ResultRecorder interface {
	RecordGameFinished(ctx context.Context, payload *GameFinishedPayload) error
}

// Subscriber consumes the global channel and hands finished games to a recorder.
type Subscriber struct {
	rdb      *redis.Client
	recorder ResultRecorder
}

// NewSubscriber creates a Subscriber.
func NewSubscriber(rdb *redis.Client, recorder ResultRecorder) *Subscriber {
	return &Subscriber{rdb: rdb, recorder: recorder}
}

// Run blocks until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, EventsChannel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", EventsChannel, err)
	}
	slog.InfoContext(ctx, "Event subscriber started", "channel", EventsChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Event subscriber stopped", "channel", EventsChannel)
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(ctx, msg.Payload)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, raw string) {
	ctx, span := tracer.Start(ctx, "events.handleEvent", trace.WithAttributes(
		attribute.String("event.channel", EventsChannel),
	))
	defer span.End()

	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		slog.ErrorContext(ctx, "Could not unmarshal global event", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not unmarshal global event")
		return
	}
	span.SetAttributes(attribute.String("event.type", event.Type))

	switch event.Type {
	case TypeGameFinished:
		var payload GameFinishedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			slog.ErrorContext(ctx, "Could not unmarshal game_finished payload", "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Could not unmarshal game_finished payload")
			return
		}
		if err := s.recorder.RecordGameFinished(ctx, &payload); err != nil {
			slog.ErrorContext(ctx, "Failed to record finished game", "game.id", payload.GameID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to record finished game")
		}
	default:
		slog.DebugContext(ctx, "Ignoring event", "event.type", event.Type)
	}
}
