package session

import (
	"sync"

	"github.com/npezzotti/go-chatclient/internal/types"
	"github.com/samber/lo"
)

// SessionState holds the collections the rest of the application consumes:
// the room list, the open room's message and participant lists, and the
// cached profile. It is mutated only by the session loop; consumers read
// through accessors which return copies.
type SessionState struct {
	mu            sync.RWMutex
	rooms         []types.Room
	messages      []types.Message
	roomUsers     []types.RoomUser
	allRoomUsers  []types.RoomUser
	profile       types.User
	currentRoomId string
}

func NewSessionState() *SessionState {
	return &SessionState{}
}

func (s *SessionState) Rooms() []types.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Room(nil), s.rooms...)
}

func (s *SessionState) Messages() []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Message(nil), s.messages...)
}

func (s *SessionState) RoomUsers() []types.RoomUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.RoomUser(nil), s.roomUsers...)
}

func (s *SessionState) AllRoomUsers() []types.RoomUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.RoomUser(nil), s.allRoomUsers...)
}

func (s *SessionState) Profile() types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *SessionState) CurrentRoomId() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentRoomId
}

func (s *SessionState) CurrentRoom() (types.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := lo.Find(s.rooms, func(r types.Room) bool { return r.Id == s.currentRoomId })
	return room, ok
}

func (s *SessionState) setRooms(rooms []types.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = rooms
}

func (s *SessionState) setMessages(msgs []types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = msgs
}

func (s *SessionState) setProfile(user types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = user
}

func (s *SessionState) setCurrentRoom(roomId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentRoomId = roomId
}

// clearRoomView drops the open room's message and participant lists,
// e.g. ahead of a room switch.
func (s *SessionState) clearRoomView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.roomUsers = nil
	s.allRoomUsers = nil
}

// clearRoomViewIf clears the open-room view and current room marker when
// roomId is the open room. Returns whether anything was cleared.
func (s *SessionState) clearRoomViewIf(roomId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentRoomId != roomId || roomId == "" {
		return false
	}

	s.currentRoomId = ""
	s.messages = nil
	s.roomUsers = nil
	s.allRoomUsers = nil
	return true
}

// updateRoom replaces the mutable fields of the matching room. Events for
// rooms outside the local list are ignored; membership changes arrive via
// REST responses, not the global topic.
func (s *SessionState) updateRoom(ev RoomEvent) (types.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rooms {
		if s.rooms[i].Id != ev.Id {
			continue
		}

		s.rooms[i].Name = ev.Name
		s.rooms[i].LastMessage = ev.LastMessage
		s.rooms[i].LastMessageSenderId = ev.LastMessageSenderId
		s.rooms[i].LastMessageSenderFirstName = ev.LastMessageSenderFirstName
		return s.rooms[i], true
	}

	return types.Room{}, false
}

// upsertRoom inserts the room or replaces it by id, used for REST
// responses to the acting client (create, rename, accept invitation).
func (s *SessionState) upsertRoom(room types.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rooms {
		if s.rooms[i].Id == room.Id {
			s.rooms[i] = room
			return
		}
	}

	s.rooms = append(s.rooms, room)
}

// removeRoom removes the room by id. Returns false if it was already
// absent, which keeps repeated deletions idempotent.
func (s *SessionState) removeRoom(roomId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := lo.Filter(s.rooms, func(r types.Room, _ int) bool { return r.Id != roomId })
	if len(filtered) == len(s.rooms) {
		return false
	}

	s.rooms = filtered
	return true
}

func (s *SessionState) appendMessage(msg types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *SessionState) setRoomUsers(users []types.RoomUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomUsers = users
}

func (s *SessionState) setAllRoomUsers(users []types.RoomUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allRoomUsers = users
}

// patchParticipant applies a profile update to the matching entry in both
// participant scopes and, for the local user's own id, the cached profile.
func (s *SessionState) patchParticipant(ev ProfileEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patch := func(u types.RoomUser, _ int) types.RoomUser {
		if u.Id == ev.Id {
			u.FirstName = ev.FirstName
			u.LastName = ev.LastName
			u.ProfilePictureUrl = ev.ProfilePictureUrl
		}
		return u
	}

	s.roomUsers = lo.Map(s.roomUsers, patch)
	s.allRoomUsers = lo.Map(s.allRoomUsers, patch)

	if s.profile.Id == ev.Id {
		s.profile.FirstName = ev.FirstName
		s.profile.LastName = ev.LastName
		s.profile.ProfilePictureUrl = ev.ProfilePictureUrl
		if ev.Email != "" {
			s.profile.Email = ev.Email
		}
	}
}
