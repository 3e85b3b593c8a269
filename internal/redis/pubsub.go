package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/VoidGod00/simple-chat/internal/domain"
)

// subscription pairs a live pub/sub connection with the done channel its
// delivery goroutine closes on exit, so teardown can wait for the handler to
// go quiet.
type subscription struct {
	sub  *redis.PubSub
	done chan struct{}
}

// PublishMessage fans the message out to every listener currently subscribed
// to the room's channel. Fire-and-forget: no acknowledgment, no retry, and
// rooms with zero subscribers silently drop the event.
func (r *RedisClient) PublishMessage(ctx context.Context, room string, msg domain.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return storeErr(r.client.Publish(ctx, roomChannel(room), data).Err())
}

// SubscribeRoom attaches handler to the room's channel. Subscriptions are
// tracked per room:listener key, so a second subscribe for the same listener
// in the same room is a no-op.
func (r *RedisClient) SubscribeRoom(ctx context.Context, room, listenerID string, handler func(domain.ChatMessage)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	subKey := fmt.Sprintf("%s:%s", room, listenerID)
	if _, exists := r.subMapping[subKey]; exists {
		return nil
	}

	sub := r.client.Subscribe(ctx, roomChannel(room))

	// Wait for the subscription confirmation so no event published after this
	// call returns is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return storeErr(err)
	}

	entry := &subscription{sub: sub, done: make(chan struct{})}
	go func() {
		defer close(entry.done)
		for m := range sub.Channel() {
			var msg domain.ChatMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				continue // skip frames that are not chat messages
			}
			handler(msg)
		}
	}()

	r.subMapping[subKey] = entry
	return nil
}

// UnsubscribeRoom detaches a listener from a room's channel. It does not
// return until the subscription's delivery goroutine has exited, so once this
// call completes the handler will never fire again and whatever the handler
// writes to can be torn down safely. Unknown subscriptions are ignored.
func (r *RedisClient) UnsubscribeRoom(room, listenerID string) error {
	r.mu.Lock()
	subKey := fmt.Sprintf("%s:%s", room, listenerID)
	entry, exists := r.subMapping[subKey]
	if exists {
		delete(r.subMapping, subKey)
	}
	r.mu.Unlock()

	if !exists {
		return nil
	}

	err := entry.sub.Close()
	<-entry.done
	return storeErr(err)
}

// CleanupSubscriptions drops every live subscription and waits for their
// delivery goroutines to exit. Used during shutdown; close errors are ignored
// so cleanup always completes.
func (r *RedisClient) CleanupSubscriptions() {
	r.mu.Lock()
	entries := make([]*subscription, 0, len(r.subMapping))
	for key, entry := range r.subMapping {
		entries = append(entries, entry)
		delete(r.subMapping, key)
	}
	r.mu.Unlock()

	for _, entry := range entries {
		_ = entry.sub.Close()
		<-entry.done
	}
}
