package session

import (
	"testing"

	"github.com/npezzotti/go-chatclient/internal/testutil"
	"github.com/npezzotti/go-chatclient/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(t *testing.T) (*Reconciler, *SessionState, *Listeners) {
	t.Helper()
	state := NewSessionState()
	listeners := &Listeners{}
	return NewReconciler(state, listeners, testutil.TestLogger(t)), state, listeners
}

func TestReconciler_RoomUpdate(t *testing.T) {
	r, state, listeners := newTestReconciler(t)
	state.setRooms([]types.Room{
		{Id: "room-1", Name: "general", Owner: "u1"},
		{Id: "room-2", Name: "random"},
	})

	var notified []types.Room
	listeners.OnRoomUpdated(func(room types.Room) {
		notified = append(notified, room)
	})

	r.applyRoomUpdate(&RoomEvent{
		Type:                       eventTypeUserRoom,
		Id:                         "room-1",
		Name:                       "general-renamed",
		LastMessage:                "hello",
		LastMessageSenderId:        "u2",
		LastMessageSenderFirstName: "Bea",
	})

	rooms := state.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "general-renamed", rooms[0].Name)
	assert.Equal(t, "hello", rooms[0].LastMessage)
	assert.Equal(t, "u2", rooms[0].LastMessageSenderId)
	// fields the event does not carry are untouched
	assert.Equal(t, "u1", rooms[0].Owner)
	assert.Equal(t, "random", rooms[1].Name)

	require.Len(t, notified, 1)
	assert.Equal(t, "room-1", notified[0].Id)
}

func TestReconciler_RoomUpdateUnknownRoom(t *testing.T) {
	r, state, listeners := newTestReconciler(t)
	state.setRooms([]types.Room{{Id: "room-1", Name: "general"}})

	var fired bool
	listeners.OnRoomUpdated(func(types.Room) { fired = true })

	r.applyRoomUpdate(&RoomEvent{Type: eventTypeUserRoom, Id: "room-9", Name: "ghost"})

	assert.Len(t, state.Rooms(), 1)
	assert.False(t, fired)
}

func TestReconciler_RoomDeletedIsIdempotent(t *testing.T) {
	r, state, listeners := newTestReconciler(t)
	state.setRooms([]types.Room{{Id: "room-1"}, {Id: "room-2"}})
	state.setCurrentRoom("room-1")
	state.appendMessage(types.Message{Id: "m1", RoomId: "room-1"})

	var deletions []string
	listeners.OnRoomDeleted(func(roomId string) {
		deletions = append(deletions, roomId)
	})

	r.applyRoomDeleted("room-1")

	assert.Equal(t, []types.Room{{Id: "room-2"}}, state.Rooms())
	assert.Empty(t, state.CurrentRoomId())
	assert.Empty(t, state.Messages())
	assert.Equal(t, []string{"room-1"}, deletions)

	// a second deletion changes nothing and fires nothing
	r.applyRoomDeleted("room-1")
	assert.Equal(t, []string{"room-1"}, deletions)
}

func TestReconciler_RoomDeletedNotOpenRoom(t *testing.T) {
	r, state, _ := newTestReconciler(t)
	state.setRooms([]types.Room{{Id: "room-1"}, {Id: "room-2"}})
	state.setCurrentRoom("room-1")
	state.appendMessage(types.Message{Id: "m1", RoomId: "room-1"})

	r.applyRoomDeleted("room-2")

	assert.Equal(t, "room-1", state.CurrentRoomId())
	assert.Len(t, state.Messages(), 1)
	assert.Equal(t, []types.Room{{Id: "room-1"}}, state.Rooms())
}

func TestReconciler_MessageAppendsInArrivalOrder(t *testing.T) {
	r, state, listeners := newTestReconciler(t)
	state.setCurrentRoom("room-1")

	var notified []types.Message
	listeners.OnMessage(func(msg types.Message) {
		notified = append(notified, msg)
	})

	r.applyMessage(&types.Message{Id: "m1", RoomId: "room-1", Content: "first"})
	r.applyMessage(&types.Message{Id: "m2", RoomId: "room-1", Content: "second"})

	msgs := state.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Len(t, notified, 2)
}

func TestReconciler_MessageForClosedRoomDropped(t *testing.T) {
	r, state, listeners := newTestReconciler(t)
	state.setCurrentRoom("room-1")

	var fired bool
	listeners.OnMessage(func(types.Message) { fired = true })

	r.applyMessage(&types.Message{Id: "m1", RoomId: "room-2", Content: "stray"})

	assert.Empty(t, state.Messages())
	assert.False(t, fired)
}

func TestReconciler_ParticipantSnapshotsReplaceWholesale(t *testing.T) {
	r, state, _ := newTestReconciler(t)
	state.setRoomUsers([]types.RoomUser{{Id: "u1"}, {Id: "u2"}})

	r.applyRoomUsers(&participantsEvent{
		roomId: "room-1",
		users:  []types.RoomUser{{Id: "u3", FirstName: "Cam"}},
	})

	users := state.RoomUsers()
	require.Len(t, users, 1)
	assert.Equal(t, "u3", users[0].Id)
}

func TestReconciler_ProfilePatchesBothScopesAndSelf(t *testing.T) {
	r, state, listeners := newTestReconciler(t)
	state.setProfile(types.User{Id: "u1", FirstName: "Ann", Email: "ann@example.com"})
	state.setRoomUsers([]types.RoomUser{{Id: "u1", FirstName: "Ann"}, {Id: "u2", FirstName: "Bea"}})
	state.setAllRoomUsers([]types.RoomUser{{Id: "u1", FirstName: "Ann"}})

	var notified []types.User
	listeners.OnProfileUpdated(func(user types.User) {
		notified = append(notified, user)
	})

	r.applyProfile(&ProfileEvent{Id: "u1", FirstName: "Anne", LastName: "Lee"})

	users := state.RoomUsers()
	assert.Equal(t, "Anne", users[0].FirstName)
	assert.Equal(t, "Bea", users[1].FirstName)
	assert.Equal(t, "Anne", state.AllRoomUsers()[0].FirstName)

	profile := state.Profile()
	assert.Equal(t, "Anne", profile.FirstName)
	assert.Equal(t, "ann@example.com", profile.Email)

	require.Len(t, notified, 1)
	assert.Equal(t, "u1", notified[0].Id)
}
