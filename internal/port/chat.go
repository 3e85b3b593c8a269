package port

import (
	"context"

	"github.com/VoidGod00/simple-chat/internal/domain"
)

// Store is the key-value store contract the chat core consumes: a registry
// hash with atomic conditional insert, per-room member sets, per-room
// append-only history with suffix-range reads, and a named-channel publish
// primitive with no delivery guarantee to absent subscribers.
//
// The store is the sole owner of all durable chat state; implementations are
// expected to be safe for concurrent use from many request handlers.
type Store interface {
	// RegisterRoom records the room atomically and reports whether this call
	// won the registration. A false result means the name was already taken.
	RegisterRoom(ctx context.Context, room, createdAt string) (bool, error)
	RoomExists(ctx context.Context, room string) (bool, error)
	// Rooms returns every registered room name with its creation timestamp.
	Rooms(ctx context.Context) (map[string]string, error)

	AddRoomMember(ctx context.Context, room, participant string) error
	RoomMembers(ctx context.Context, room string) ([]string, error)

	AppendHistory(ctx context.Context, room string, msg domain.ChatMessage) error
	// HistoryTail returns the most recent limit messages, oldest first.
	HistoryTail(ctx context.Context, room string, limit int) ([]domain.ChatMessage, error)

	PublishMessage(ctx context.Context, room string, msg domain.ChatMessage) error
	SubscribeRoom(ctx context.Context, room, listenerID string, handler func(domain.ChatMessage)) error
	UnsubscribeRoom(room, listenerID string) error
}
