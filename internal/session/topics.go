package session

// Topic kinds. Global kinds have an empty room scope; per-room kinds are
// keyed by (kind, roomId).
const (
	KindRooms        = "rooms"
	KindRoomDeleted  = "roomDeleted"
	KindUserUpdate   = "userUpdate"
	KindErrors       = "errors"
	KindRoomMessages = "roomMessages"
	KindRoomUsers    = "roomUsers"
	KindRoomUsersAll = "roomUsersAll"
)

// destinationFor maps a (kind, roomScope) key onto the server's topic
// namespace.
func destinationFor(kind, roomId string) string {
	switch kind {
	case KindRooms:
		return "/topic/rooms"
	case KindRoomDeleted:
		return "/topic/room/delete"
	case KindUserUpdate:
		return "/topic/user/update"
	case KindErrors:
		return "/queue/errors"
	case KindRoomMessages:
		return "/topic/room/" + roomId
	case KindRoomUsers:
		return "/topic/room/" + roomId + "/users"
	case KindRoomUsersAll:
		return "/topic/room/" + roomId + "/users/all"
	}

	return ""
}

// Outbound destinations, all fire-and-forget.
func sendMessageDest(roomId string) string {
	return "/app/chat.sendMessage/" + roomId
}

func updateLastMessageDest(roomId string) string {
	return "/app/updateRoomLastMessage/" + roomId
}

func updateUsersDest(roomId string) string {
	return "/app/updateUsers/" + roomId
}

func updateAllUsersDest(roomId string) string {
	return "/app/updateAllUsers/" + roomId
}
