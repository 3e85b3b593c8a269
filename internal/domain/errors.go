package domain

import "errors"

// Error kinds surfaced by the chat core. Callers switch on these with
// errors.Is; ErrStoreUnavailable wraps any transport failure from the store
// uniformly, regardless of which operation triggered it.
var (
	ErrDuplicateRoom    = errors.New("duplicate chat room name")
	ErrRoomNotFound     = errors.New("room does not exist")
	ErrStoreUnavailable = errors.New("chat store unavailable")
	ErrEmptyArgument    = errors.New("room name and participant cannot be empty")
)
