package session

import "github.com/npezzotti/go-chatclient/internal/types"

// Event type discriminators used on the global topics.
const (
	eventTypeUserRoom       = "userRoom"
	eventTypeUserRoomDelete = "userRoomDelete"
	eventTypeMessage        = "message"
)

// RoomEvent is a room-updated push on the global rooms topic, carrying a
// room's mutable fields (name and last-message summary).
type RoomEvent struct {
	Type                       string `json:"type"`
	Id                         string `json:"id"`
	Name                       string `json:"name"`
	Owner                      string `json:"owner,omitempty"`
	LastMessage                string `json:"lastMessage,omitempty"`
	LastMessageSenderId        string `json:"lastMessageSenderId,omitempty"`
	LastMessageSenderFirstName string `json:"lastMessageSenderFirstName,omitempty"`
}

// RoomDeletedEvent is a deletion push on the global room-deletion topic.
type RoomDeletedEvent struct {
	Type string `json:"type"`
	Id   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ProfileEvent is a profile-update push on the global user topic.
type ProfileEvent struct {
	Id                string `json:"id"`
	Email             string `json:"email,omitempty"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	ProfilePictureUrl string `json:"profilePictureUrl,omitempty"`
}

// participantsEvent is a full-list snapshot for one scope of a room.
type participantsEvent struct {
	roomId string
	users  []types.RoomUser
}

// pushEvent is the decoded inbound event handed to the session loop.
// Exactly one variant is set.
type pushEvent struct {
	roomUpdate   *RoomEvent
	roomDeleted  *RoomDeletedEvent
	message      *types.Message
	roomUsers    *participantsEvent
	allRoomUsers *participantsEvent
	profile      *ProfileEvent
}
