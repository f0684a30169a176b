package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu    sync.Mutex
	games []*GameFinishedPayload
	err   error
}

func (f *fakeRecorder) RecordGameFinished(_ context.Context, p *GameFinishedPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games = append(f.games, p)
	return f.err
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.games)
}

func samplePayload() *GameFinishedPayload {
	return &GameFinishedPayload{
		GameID:     "game-1",
		SessionID:  "session-1",
		PlayerID:   "player-1",
		HumanMark:  "X",
		BotMark:    "O",
		Difficulty: "hard",
		Outcome:    "win",
		Winner:     "O",
		Board:      []string{"X", "X", "", "O", "O", "O", "X", "", ""},
		Moves:      6,
		FinishedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewEvent(t *testing.T) {
	data, err := NewEvent(TypeGameFinished, samplePayload())
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, TypeGameFinished, event.Type)

	var payload GameFinishedPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, *samplePayload(), payload)
}

func TestSubscriber_Handle(t *testing.T) {
	valid, err := NewEvent(TypeGameFinished, samplePayload())
	require.NoError(t, err)
	other, err := NewEvent("something_else", map[string]string{"k": "v"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		raw       string
		wantCalls int
	}{
		{name: "game finished is recorded", raw: string(valid), wantCalls: 1},
		{name: "unknown event is ignored", raw: string(other), wantCalls: 0},
		{name: "garbage is ignored", raw: "{not json", wantCalls: 0},
		{name: "bad payload is ignored", raw: `{"event":"game_finished","payload":"nope"}`, wantCalls: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			s := NewSubscriber(nil, rec)
			s.handle(context.Background(), tt.raw)
			assert.Equal(t, tt.wantCalls, rec.count())
		})
	}
}

func TestSubscriber_RecorderErrorIsSwallowed(t *testing.T) {
	valid, err := NewEvent(TypeGameFinished, samplePayload())
	require.NoError(t, err)

	rec := &fakeRecorder{err: errors.New("disk full")}
	NewSubscriber(nil, rec).handle(context.Background(), string(valid))
	assert.Equal(t, 1, rec.count())
}
