package redis

import "fmt"

// Key layout shared with other deployments of this system. Changing any of
// these breaks interop with existing data.
const roomsKey = "chat:rooms"

func roomUsersKey(room string) string {
	return fmt.Sprintf("room:%s:users", room)
}

func roomHistoryKey(room string) string {
	return fmt.Sprintf("room:%s:history", room)
}

func roomChannel(room string) string {
	return fmt.Sprintf("chat:channel:%s", room)
}
