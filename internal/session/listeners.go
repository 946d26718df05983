package session

import (
	"sync"

	"github.com/npezzotti/go-chatclient/internal/transport"
	"github.com/npezzotti/go-chatclient/internal/types"
)

type RoomListener func(room types.Room)
type RoomDeletedListener func(roomId string)
type MessageListener func(msg types.Message)
type ParticipantsListener func(roomId string, users []types.RoomUser)
type ProfileListener func(user types.User)
type ConnStateListener func(state transport.State)

// Listeners holds per-event-kind callback registrations. Each occurrence
// of an event is delivered exactly once to every registered callback;
// callbacks run on the session loop goroutine and must not block.
type Listeners struct {
	mu           sync.Mutex
	roomUpdated  []RoomListener
	roomDeleted  []RoomDeletedListener
	message      []MessageListener
	roomUsers    []ParticipantsListener
	allRoomUsers []ParticipantsListener
	profile      []ProfileListener
	connState    []ConnStateListener
}

func (l *Listeners) OnRoomUpdated(fn RoomListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roomUpdated = append(l.roomUpdated, fn)
}

func (l *Listeners) OnRoomDeleted(fn RoomDeletedListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roomDeleted = append(l.roomDeleted, fn)
}

func (l *Listeners) OnMessage(fn MessageListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.message = append(l.message, fn)
}

func (l *Listeners) OnRoomUsers(fn ParticipantsListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roomUsers = append(l.roomUsers, fn)
}

func (l *Listeners) OnAllRoomUsers(fn ParticipantsListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allRoomUsers = append(l.allRoomUsers, fn)
}

func (l *Listeners) OnProfileUpdated(fn ProfileListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profile = append(l.profile, fn)
}

func (l *Listeners) OnConnectionState(fn ConnStateListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connState = append(l.connState, fn)
}

func (l *Listeners) fireRoomUpdated(room types.Room) {
	l.mu.Lock()
	fns := append([]RoomListener(nil), l.roomUpdated...)
	l.mu.Unlock()

	for _, fn := range fns {
		fn(room)
	}
}

func (l *Listeners) fireRoomDeleted(roomId string) {
	l.mu.Lock()
	fns := append([]RoomDeletedListener(nil), l.roomDeleted...)
	l.mu.Unlock()

	for _, fn := range fns {
		fn(roomId)
	}
}

func (l *Listeners) fireMessage(msg types.Message) {
	l.mu.Lock()
	fns := append([]MessageListener(nil), l.message...)
	l.mu.Unlock()

	for _, fn := range fns {
		fn(msg)
	}
}

func (l *Listeners) fireRoomUsers(roomId string, users []types.RoomUser) {
	l.mu.Lock()
	fns := append([]ParticipantsListener(nil), l.roomUsers...)
	l.mu.Unlock()

	for _, fn := range fns {
		fn(roomId, users)
	}
}

func (l *Listeners) fireAllRoomUsers(roomId string, users []types.RoomUser) {
	l.mu.Lock()
	fns := append([]ParticipantsListener(nil), l.allRoomUsers...)
	l.mu.Unlock()

	for _, fn := range fns {
		fn(roomId, users)
	}
}

func (l *Listeners) fireProfileUpdated(user types.User) {
	l.mu.Lock()
	fns := append([]ProfileListener(nil), l.profile...)
	l.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

func (l *Listeners) fireConnectionState(state transport.State) {
	l.mu.Lock()
	fns := append([]ConnStateListener(nil), l.connState...)
	l.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
