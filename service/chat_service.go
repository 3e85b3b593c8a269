package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/VoidGod00/simple-chat/internal/domain"
	"github.com/VoidGod00/simple-chat/internal/port"
	"github.com/VoidGod00/simple-chat/pkg/logger"
)

// ChatService defines the room and message operations exposed to the
// transport adapters.
type ChatService interface {
	CreateRoom(ctx context.Context, roomName string) error
	JoinRoom(ctx context.Context, roomName, participant string) error
	SendMessage(ctx context.Context, roomName, participant, body string) (domain.ChatMessage, error)
	GetHistory(ctx context.Context, roomName string, limit int) ([]domain.ChatMessage, error)

	ListRooms(ctx context.Context) ([]domain.RoomInfo, error)
	ListRoomMembers(ctx context.Context, roomName string) ([]string, error)

	SubscribeRoom(ctx context.Context, roomName, listenerID string, handler func(domain.ChatMessage)) error
	UnsubscribeRoom(roomName, listenerID string) error
}

// chatService keeps no room or message state of its own; every operation is a
// short sequence of store round-trips, so instances are safe to share across
// request handlers and across processes.
type chatService struct {
	store  port.Store
	logger logger.Logger
}

func NewChatService(store port.Store, logg logger.Logger) ChatService {
	return &chatService{
		store:  store,
		logger: logg,
	}
}

// CreateRoom registers the room name with the current server time. The
// registry insert is atomic, so of two concurrent creators exactly one wins
// and the other gets ErrDuplicateRoom.
func (c *chatService) CreateRoom(ctx context.Context, roomName string) error {
	if roomName == "" {
		return domain.ErrEmptyArgument
	}

	created, err := c.store.RegisterRoom(ctx, roomName, timestamp())
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateRoom, roomName)
	}

	c.logger.Infof("created room %s", roomName)
	return nil
}

// JoinRoom adds the participant to the room's member set. Joining twice is a
// no-op by set semantics.
func (c *chatService) JoinRoom(ctx context.Context, roomName, participant string) error {
	if roomName == "" || participant == "" {
		return domain.ErrEmptyArgument
	}
	if err := c.roomMustExist(ctx, roomName); err != nil {
		return err
	}
	return c.store.AddRoomMember(ctx, roomName, participant)
}

// SendMessage stamps the message with the current server time, appends it to
// the room's history, and broadcasts it to live listeners. The message counts
// as sent once the append succeeds; broadcast is best-effort and a publish
// failure is logged, not returned. Reconnecting clients catch up through
// GetHistory, never through replayed broadcasts.
func (c *chatService) SendMessage(ctx context.Context, roomName, participant, body string) (domain.ChatMessage, error) {
	if roomName == "" || participant == "" {
		return domain.ChatMessage{}, domain.ErrEmptyArgument
	}
	if err := c.roomMustExist(ctx, roomName); err != nil {
		return domain.ChatMessage{}, err
	}

	msg := domain.ChatMessage{
		Participant: participant,
		Message:     body,
		Timestamp:   timestamp(),
	}

	if err := c.store.AppendHistory(ctx, roomName, msg); err != nil {
		return domain.ChatMessage{}, err
	}

	if err := c.store.PublishMessage(ctx, roomName, msg); err != nil {
		c.logger.Errorf("broadcast to room %s failed: %v", roomName, err)
	}

	return msg, nil
}

// GetHistory returns the most recent limit messages in chronological order.
// limit <= 0 yields no messages; a limit beyond the stored count yields the
// entire history.
func (c *chatService) GetHistory(ctx context.Context, roomName string, limit int) ([]domain.ChatMessage, error) {
	if roomName == "" {
		return nil, domain.ErrEmptyArgument
	}
	if err := c.roomMustExist(ctx, roomName); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.ChatMessage{}, nil
	}
	return c.store.HistoryTail(ctx, roomName, limit)
}

func (c *chatService) ListRooms(ctx context.Context) ([]domain.RoomInfo, error) {
	rooms, err := c.store.Rooms(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]domain.RoomInfo, 0, len(rooms))
	for name, createdAt := range rooms {
		infos = append(infos, domain.RoomInfo{Name: name, CreatedAt: createdAt})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (c *chatService) ListRoomMembers(ctx context.Context, roomName string) ([]string, error) {
	if roomName == "" {
		return nil, domain.ErrEmptyArgument
	}
	if err := c.roomMustExist(ctx, roomName); err != nil {
		return nil, err
	}
	return c.store.RoomMembers(ctx, roomName)
}

// SubscribeRoom attaches a live listener to the room's broadcast channel.
// Delivery is fire-and-forget for connected listeners only.
func (c *chatService) SubscribeRoom(ctx context.Context, roomName, listenerID string, handler func(domain.ChatMessage)) error {
	if roomName == "" || listenerID == "" {
		return domain.ErrEmptyArgument
	}
	if err := c.roomMustExist(ctx, roomName); err != nil {
		return err
	}
	return c.store.SubscribeRoom(ctx, roomName, listenerID, handler)
}

func (c *chatService) UnsubscribeRoom(roomName, listenerID string) error {
	return c.store.UnsubscribeRoom(roomName, listenerID)
}

// roomMustExist is the shared validation gate: every room-scoped operation
// checks the registry before touching membership, history, or broadcast.
func (c *chatService) roomMustExist(ctx context.Context, roomName string) error {
	exists, err := c.store.RoomExists(ctx, roomName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, roomName)
	}
	return nil
}

// timestamp is the server clock authority for both room creation and message
// stamping. UTC RFC 3339 with nanoseconds, matching the stored format of
// existing deployments.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
