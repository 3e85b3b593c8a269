package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/VoidGod00/simple-chat/internal/domain"
)

// RedisClient implements the chat store contract on top of a single Redis
// deployment. It holds no chat state of its own beyond live subscriptions.
type RedisClient struct {
	client     *redis.Client
	subMapping map[string]*subscription // one subscription per room:listener
	mu         sync.Mutex
}

func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:     client,
		subMapping: make(map[string]*subscription),
	}, nil
}

// RegisterRoom writes the room into the registry hash with HSETNX, so the
// existence check and the insert are a single atomic check-and-set. A losing
// concurrent creator gets false back.
func (r *RedisClient) RegisterRoom(ctx context.Context, room, createdAt string) (bool, error) {
	created, err := r.client.HSetNX(ctx, roomsKey, room, createdAt).Result()
	if err != nil {
		return false, storeErr(err)
	}
	return created, nil
}

func (r *RedisClient) RoomExists(ctx context.Context, room string) (bool, error) {
	exists, err := r.client.HExists(ctx, roomsKey, room).Result()
	if err != nil {
		return false, storeErr(err)
	}
	return exists, nil
}

func (r *RedisClient) Rooms(ctx context.Context) (map[string]string, error) {
	rooms, err := r.client.HGetAll(ctx, roomsKey).Result()
	if err != nil {
		return nil, storeErr(err)
	}
	return rooms, nil
}

func (r *RedisClient) AddRoomMember(ctx context.Context, room, participant string) error {
	return storeErr(r.client.SAdd(ctx, roomUsersKey(room), participant).Err())
}

func (r *RedisClient) RoomMembers(ctx context.Context, room string) ([]string, error) {
	members, err := r.client.SMembers(ctx, roomUsersKey(room)).Result()
	if err != nil {
		return nil, storeErr(err)
	}
	return members, nil
}

func (r *RedisClient) AppendHistory(ctx context.Context, room string, msg domain.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return storeErr(r.client.RPush(ctx, roomHistoryKey(room), data).Err())
}

// HistoryTail reads the last limit entries with a suffix LRANGE, oldest of
// the window first. A limit larger than the list returns everything.
func (r *RedisClient) HistoryTail(ctx context.Context, room string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := r.client.LRange(ctx, roomHistoryKey(room), int64(-limit), -1).Result()
	if err != nil {
		return nil, storeErr(err)
	}

	messages := make([]domain.ChatMessage, 0, len(raw))
	for _, entry := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode history entry: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return storeErr(r.client.Ping(ctx).Err())
}

// FlushAll clears the entire database. Test use only.
func (r *RedisClient) FlushAll(ctx context.Context) error {
	return storeErr(r.client.FlushAll(ctx).Err())
}

// Close drops all live subscriptions and closes the connection pool.
func (r *RedisClient) Close() error {
	r.CleanupSubscriptions()
	return r.client.Close()
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
