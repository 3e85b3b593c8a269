package domain

// ChatMessage is the wire and storage form of a single room message.
// Timestamp is always assigned by the server at append time; any value
// supplied by a client is discarded before persistence.
type ChatMessage struct {
	Participant string `json:"participant"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// RoomInfo describes a registered room.
type RoomInfo struct {
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}
