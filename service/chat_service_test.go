package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoidGod00/simple-chat/internal/domain"
	"github.com/VoidGod00/simple-chat/pkg/logger"
)

// fakeStore is an in-memory stand-in for the Redis store, with the same
// semantics: atomic conditional registration, set membership, ordered
// history, synchronous fan-out to subscribed handlers.
type fakeStore struct {
	mu        sync.Mutex
	rooms     map[string]string
	members   map[string]map[string]struct{}
	history   map[string][]domain.ChatMessage
	published map[string][]domain.ChatMessage
	handlers  map[string]map[string]func(domain.ChatMessage)

	publishErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:     make(map[string]string),
		members:   make(map[string]map[string]struct{}),
		history:   make(map[string][]domain.ChatMessage),
		published: make(map[string][]domain.ChatMessage),
		handlers:  make(map[string]map[string]func(domain.ChatMessage)),
	}
}

func (f *fakeStore) RegisterRoom(_ context.Context, room, createdAt string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.rooms[room]; exists {
		return false, nil
	}
	f.rooms[room] = createdAt
	return true, nil
}

func (f *fakeStore) RoomExists(_ context.Context, room string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.rooms[room]
	return exists, nil
}

func (f *fakeStore) Rooms(_ context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rooms := make(map[string]string, len(f.rooms))
	for name, createdAt := range f.rooms {
		rooms[name] = createdAt
	}
	return rooms, nil
}

func (f *fakeStore) AddRoomMember(_ context.Context, room, participant string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[room] == nil {
		f.members[room] = make(map[string]struct{})
	}
	f.members[room][participant] = struct{}{}
	return nil
}

func (f *fakeStore) RoomMembers(_ context.Context, room string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := make([]string, 0, len(f.members[room]))
	for m := range f.members[room] {
		members = append(members, m)
	}
	return members, nil
}

func (f *fakeStore) AppendHistory(_ context.Context, room string, msg domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[room] = append(f.history[room], msg)
	return nil
}

func (f *fakeStore) HistoryTail(_ context.Context, room string, limit int) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.history[room]
	if limit <= 0 {
		return nil, nil
	}
	if limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}
	out := make([]domain.ChatMessage, len(entries))
	copy(out, entries)
	return out, nil
}

func (f *fakeStore) PublishMessage(_ context.Context, room string, msg domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published[room] = append(f.published[room], msg)
	for _, handler := range f.handlers[room] {
		handler(msg)
	}
	return nil
}

func (f *fakeStore) SubscribeRoom(_ context.Context, room, listenerID string, handler func(domain.ChatMessage)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers[room] == nil {
		f.handlers[room] = make(map[string]func(domain.ChatMessage))
	}
	f.handlers[room][listenerID] = handler
	return nil
}

func (f *fakeStore) UnsubscribeRoom(room, listenerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers[room], listenerID)
	return nil
}

func setupChatService() (ChatService, *fakeStore) {
	store := newFakeStore()
	return NewChatService(store, logger.NewLogger("error", "")), store
}

func TestCreateRoom(t *testing.T) {
	chatService, store := setupChatService()
	ctx := context.Background()

	assert.NoError(t, chatService.CreateRoom(ctx, "general"))

	// The registry records a parseable server-side creation timestamp.
	createdAt := store.rooms["general"]
	_, err := time.Parse(time.RFC3339Nano, createdAt)
	assert.NoError(t, err)

	// Second create against the same name loses.
	err = chatService.CreateRoom(ctx, "general")
	assert.ErrorIs(t, err, domain.ErrDuplicateRoom)
}

func TestCreateRoomEmptyName(t *testing.T) {
	chatService, _ := setupChatService()
	assert.ErrorIs(t, chatService.CreateRoom(context.Background(), ""), domain.ErrEmptyArgument)
}

func TestOperationsOnMissingRoom(t *testing.T) {
	chatService, store := setupChatService()
	ctx := context.Background()

	assert.ErrorIs(t, chatService.JoinRoom(ctx, "ghost", "bob"), domain.ErrRoomNotFound)

	_, err := chatService.SendMessage(ctx, "ghost", "bob", "x")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, err = chatService.GetHistory(ctx, "ghost", 10)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, err = chatService.ListRoomMembers(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	assert.ErrorIs(t, chatService.SubscribeRoom(ctx, "ghost", "bob", func(domain.ChatMessage) {}), domain.ErrRoomNotFound)

	// The failed send performed no history append and no broadcast.
	assert.Empty(t, store.history["ghost"])
	assert.Empty(t, store.published["ghost"])
}

func TestJoinRoomIdempotent(t *testing.T) {
	chatService, _ := setupChatService()
	ctx := context.Background()

	require.NoError(t, chatService.CreateRoom(ctx, "roomA"))
	assert.NoError(t, chatService.JoinRoom(ctx, "roomA", "alice"))
	assert.NoError(t, chatService.JoinRoom(ctx, "roomA", "alice"))

	members, err := chatService.ListRoomMembers(ctx, "roomA")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice"}, members)
}

func TestSendMessageOrdering(t *testing.T) {
	chatService, _ := setupChatService()
	ctx := context.Background()

	require.NoError(t, chatService.CreateRoom(ctx, "roomA"))

	_, err := chatService.SendMessage(ctx, "roomA", "alice", "m1")
	require.NoError(t, err)
	_, err = chatService.SendMessage(ctx, "roomA", "alice", "m2")
	require.NoError(t, err)

	history, err := chatService.GetHistory(ctx, "roomA", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "m1", history[0].Message)
	assert.Equal(t, "m2", history[1].Message)
}

func TestHistoryWindowing(t *testing.T) {
	chatService, _ := setupChatService()
	ctx := context.Background()

	require.NoError(t, chatService.CreateRoom(ctx, "roomA"))
	for i := 1; i <= 5; i++ {
		_, err := chatService.SendMessage(ctx, "roomA", "alice", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	// k < N returns exactly the last k in order.
	history, err := chatService.GetHistory(ctx, "roomA", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "m4", history[0].Message)
	assert.Equal(t, "m5", history[1].Message)

	// k >= N returns all N.
	history, err = chatService.GetHistory(ctx, "roomA", 50)
	require.NoError(t, err)
	assert.Len(t, history, 5)

	// Non-positive limits yield no messages, no error.
	for _, limit := range []int{0, -3} {
		history, err = chatService.GetHistory(ctx, "roomA", limit)
		assert.NoError(t, err)
		assert.Empty(t, history)
	}
}

func TestSendMessageStampsServerTime(t *testing.T) {
	chatService, store := setupChatService()
	ctx := context.Background()

	require.NoError(t, chatService.CreateRoom(ctx, "roomA"))

	before := time.Now().UTC()
	msg, err := chatService.SendMessage(ctx, "roomA", "alice", "hi")
	require.NoError(t, err)

	stamped, err := time.Parse(time.RFC3339Nano, msg.Timestamp)
	require.NoError(t, err)
	assert.False(t, stamped.Before(before.Add(-time.Second)))
	assert.False(t, stamped.After(time.Now().UTC().Add(time.Second)))

	// Stored and broadcast copies carry the same stamp.
	require.Len(t, store.history["roomA"], 1)
	assert.Equal(t, msg, store.history["roomA"][0])
	require.Len(t, store.published["roomA"], 1)
	assert.Equal(t, msg, store.published["roomA"][0])
}

func TestSendMessageBroadcastBestEffort(t *testing.T) {
	chatService, store := setupChatService()
	ctx := context.Background()

	require.NoError(t, chatService.CreateRoom(ctx, "roomA"))
	store.publishErr = errors.New("pubsub down")

	// A failed broadcast does not fail the send; the append is the durable
	// record.
	msg, err := chatService.SendMessage(ctx, "roomA", "alice", "hi")
	assert.NoError(t, err)
	assert.Equal(t, "hi", msg.Message)

	history, err := chatService.GetHistory(ctx, "roomA", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Message)
	assert.Empty(t, store.published["roomA"])
}

func TestSubscribeReceivesLiveMessages(t *testing.T) {
	chatService, _ := setupChatService()
	ctx := context.Background()

	require.NoError(t, chatService.CreateRoom(ctx, "roomA"))

	var received []domain.ChatMessage
	require.NoError(t, chatService.SubscribeRoom(ctx, "roomA", "listener1", func(msg domain.ChatMessage) {
		received = append(received, msg)
	}))

	sent, err := chatService.SendMessage(ctx, "roomA", "alice", "hello")
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, sent, received[0])

	// After unsubscribing, no further deliveries.
	require.NoError(t, chatService.UnsubscribeRoom("roomA", "listener1"))
	_, err = chatService.SendMessage(ctx, "roomA", "alice", "again")
	require.NoError(t, err)
	assert.Len(t, received, 1)
}

func TestListRooms(t *testing.T) {
	chatService, _ := setupChatService()
	ctx := context.Background()

	require.NoError(t, chatService.CreateRoom(ctx, "zulu"))
	require.NoError(t, chatService.CreateRoom(ctx, "alpha"))

	rooms, err := chatService.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "alpha", rooms[0].Name)
	assert.Equal(t, "zulu", rooms[1].Name)
	assert.NotEmpty(t, rooms[0].CreatedAt)
}

func TestEndToEndScenario(t *testing.T) {
	chatService, _ := setupChatService()
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
}
