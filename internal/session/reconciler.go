package session

import (
	"log"

	"github.com/npezzotti/go-chatclient/internal/types"
)

// Reconciler merges decoded push events into the session state, applying
// the per-kind merge rules: last-writer-wins by id for room updates,
// remove-by-id for deletions, append-only for messages, and wholesale
// replacement for participant snapshots. It runs only on the session loop.
type Reconciler struct {
	log       *log.Logger
	state     *SessionState
	listeners *Listeners
}

func NewReconciler(state *SessionState, listeners *Listeners, logger *log.Logger) *Reconciler {
	return &Reconciler{
		log:       logger,
		state:     state,
		listeners: listeners,
	}
}

func (r *Reconciler) applyRoomUpdate(ev *RoomEvent) {
	room, ok := r.state.updateRoom(*ev)
	if !ok {
		r.log.Printf("room update for unknown room %q", ev.Id)
		return
	}

	r.listeners.fireRoomUpdated(room)
}

// applyRoomDeleted removes the room and clears the open-room view when the
// deleted room is the open one. Applying the same deletion twice leaves
// the state unchanged and fires no second notification.
func (r *Reconciler) applyRoomDeleted(roomId string) {
	removed := r.state.removeRoom(roomId)
	cleared := r.state.clearRoomViewIf(roomId)

	if !removed && !cleared {
		return
	}

	r.listeners.fireRoomDeleted(roomId)
}

// applyMessage appends to the open room's message sequence. Ordering is
// topic arrival order; there is no deduplication, the sender receives its
// own message back through the same path as everyone else.
func (r *Reconciler) applyMessage(msg *types.Message) {
	if r.state.CurrentRoomId() != msg.RoomId {
		r.log.Printf("dropping message for room %q, not the open room", msg.RoomId)
		return
	}

	r.state.appendMessage(*msg)
	r.listeners.fireMessage(*msg)
}

func (r *Reconciler) applyRoomUsers(ev *participantsEvent) {
	r.state.setRoomUsers(ev.users)
	r.listeners.fireRoomUsers(ev.roomId, ev.users)
}

func (r *Reconciler) applyAllRoomUsers(ev *participantsEvent) {
	r.state.setAllRoomUsers(ev.users)
	r.listeners.fireAllRoomUsers(ev.roomId, ev.users)
}

func (r *Reconciler) applyProfile(ev *ProfileEvent) {
	r.state.patchParticipant(*ev)
	r.listeners.fireProfileUpdated(types.User{
		Id:                ev.Id,
		Email:             ev.Email,
		FirstName:         ev.FirstName,
		LastName:          ev.LastName,
		ProfilePictureUrl: ev.ProfilePictureUrl,
	})
}
