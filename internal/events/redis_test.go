package events

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestPublishSubscribe_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(connStr)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	rec := &fakeRecorder{}
	done := make(chan error, 1)
	go func() { done <- NewSubscriber(rdb, rec).Run(ctx) }()

	// Wait until the subscriber is listening before publishing.
	require.Eventually(t, func() bool {
		n, err := rdb.PubSubNumSub(ctx, EventsChannel).Result()
		return err == nil && n[EventsChannel] > 0
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, NewPublisher(rdb).PublishGameFinished(ctx, samplePayload()))
	require.Eventually(t, func() bool { return rec.count() == 1 }, 5*time.Second, 20*time.Millisecond)

	rec.mu.Lock()
	assert.Equal(t, "game-1", rec.games[0].GameID)
	rec.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
