package types

import "time"

// User is the profile of the authenticated user as returned by the
// profile endpoint and the profile-update topic.
type User struct {
	Id                string `json:"id"`
	Email             string `json:"email,omitempty"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	ProfilePictureUrl string `json:"profilePictureUrl,omitempty"`
}

// RoomUser is a participant summary inside a room's participant lists.
type RoomUser struct {
	Id                string `json:"id"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	ProfilePictureUrl string `json:"profilePictureUrl,omitempty"`
}

// Room is a chat room as held in the local room list. LastMessage fields
// are mutated only through reconciled push events or direct REST responses.
type Room struct {
	Id                         string `json:"id"`
	Name                       string `json:"name"`
	Owner                      string `json:"owner,omitempty"`
	LastMessage                string `json:"lastMessage,omitempty"`
	LastMessageSenderId        string `json:"lastMessageSenderId,omitempty"`
	LastMessageSenderFirstName string `json:"lastMessageSenderFirstName,omitempty"`
}

// Message is a chat message on a per-room topic. Ordering is arrival
// order on the topic, there is no server-assigned sequence number.
type Message struct {
	Id              string    `json:"id,omitempty"`
	RoomId          string    `json:"roomId"`
	SenderId        string    `json:"senderId"`
	SenderFirstName string    `json:"senderFirstName"`
	SenderLastName  string    `json:"senderLastName,omitempty"`
	SenderEmail     string    `json:"senderEmail,omitempty"`
	Content         string    `json:"content"`
	Timestamp       time.Time `json:"timestamp,omitempty"`
	Type            string    `json:"type,omitempty"`
}

// Invitation is the result of creating a room invitation.
type Invitation struct {
	Token     string    `json:"token"`
	RoomId    string    `json:"roomId"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}
