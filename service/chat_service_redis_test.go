package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoidGod00/simple-chat/internal/domain"
	"github.com/VoidGod00/simple-chat/internal/redis"
	"github.com/VoidGod00/simple-chat/pkg/logger"
)

// End-to-end coverage of the service over the real store client and key
// layout, backed by an in-process Redis.
func setupRedisChatService(t *testing.T) (ChatService, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	redisClient, err := redis.NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err, "Failed to connect to Redis")

	t.Cleanup(func() {
		redisClient.Close()
	})

	return NewChatService(redisClient, logger.NewLogger("error", "")), mr
}

func TestRedisEndToEndScenario(t *testing.T) {
	chatService, mr := setupRedisChatService(t)
	ctx := context.Background()

	require.NoError(t, chatService.CreateRoom(ctx, "general"))
	require.NoError(t, chatService.JoinRoom(ctx, "general", "alice"))

	_, err := chatService.SendMessage(ctx, "general", "alice", "hi")
	require.NoError(t, err)

	history, err := chatService.GetHistory(ctx, "general", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].Participant)
	assert.Equal(t, "hi", history[0].Message)
	assert.NotEmpty(t, history[0].Timestamp)

	// Data landed under the deployed key namespace.
	assert.NotEmpty(t, mr.HGet("chat:rooms", "general"))
	assert.True(t, mr.Exists("room:general:users"))
	assert.True(t, mr.Exists("room:general:history"))
}

func TestRedisConcurrentCreateRoom(t *testing.T) {
	chatService, _ := setupRedisChatService(t)
	ctx := context.Background()

	const creators = 8
	results := make(chan error, creators)

	var wg sync.WaitGroup
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- chatService.CreateRoom(ctx, "contested")
		}()
	}
	wg.Wait()
	close(results)

	// Registration is an atomic check-and-set: exactly one creator wins, the
	// rest get the duplicate error.
	var wins, duplicates int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrDuplicateRoom):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, creators-1, duplicates)
}

func TestRedisLiveBroadcast(t *testing.T) {
	chatService, _ := setupRedisChatService(t)
	ctx := context.Background()

	require.NoError(t, chatService.CreateRoom(ctx, "general"))

	received := make(chan domain.ChatMessage, 1)
	require.NoError(t, chatService.SubscribeRoom(ctx, "general", "listener1", func(msg domain.ChatMessage) {
		received <- msg
	}))

	sent, err := chatService.SendMessage(ctx, "general", "alice", "hello")
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, sent, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("Did not receive broadcast message within timeout")
	}
}

func TestRedisStoreUnavailableSurfacesUniformly(t *testing.T) {
	chatService, mr := setupRedisChatService(t)
	ctx := context.Background()

	require.NoError(t, chatService.CreateRoom(ctx, "general"))
	mr.Close()

	assert.ErrorIs(t, chatService.CreateRoom(ctx, "other"), domain.ErrStoreUnavailable)
	assert.ErrorIs(t, chatService.JoinRoom(ctx, "general", "alice"), domain.ErrStoreUnavailable)

	_, err := chatService.GetHistory(ctx, "general", 10)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
