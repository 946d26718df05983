package session

import (
	"context"

	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/npezzotti/go-chatclient/internal/transport"
)

// Coordinator logic for the session loop: connection-state transitions,
// room switching and the membership gate in front of every room-topic
// subscribe. All methods here run on the loop goroutine.

func (s *Session) handleConnState(st transport.State) {
	switch st {
	case transport.Connected:
		if s.wasConnected {
			s.stats.Incr(stats.Reconnects)
		}
		s.wasConnected = true

		s.openGlobalTopics()

		// the previous connection's room subscriptions are gone; run the
		// open room back through the membership gate
		if s.subscribedRoomId != "" {
			s.pendingRoomId = s.subscribedRoomId
			s.subscribedRoomId = ""
		}
		if s.pendingRoomId != "" {
			s.startMembershipCheck(s.pendingRoomId)
		}
	case transport.Disconnected:
		s.registry.Reset()
		if s.subscribedRoomId != "" {
			s.pendingRoomId = s.subscribedRoomId
			s.subscribedRoomId = ""
		}
	}

	s.listeners.fireConnectionState(st)
}

func (s *Session) openGlobalTopics() {
	if err := s.registry.Open(KindRooms, "", s.handleRoomsFrame); err != nil {
		s.log.Println("subscribe rooms topic:", err)
	}
	if err := s.registry.Open(KindRoomDeleted, "", s.handleRoomDeletedFrame); err != nil {
		s.log.Println("subscribe room-deletion topic:", err)
	}
	if err := s.registry.Open(KindUserUpdate, "", s.handleUserUpdateFrame); err != nil {
		s.log.Println("subscribe user-update topic:", err)
	}
	if err := s.registry.Open(KindErrors, "", s.handleErrorFrame); err != nil {
		s.log.Println("subscribe error queue:", err)
	}
}

func (s *Session) openRoomTopics(roomId string) {
	if err := s.registry.Open(KindRoomMessages, roomId, s.roomMessageHandler(roomId)); err != nil {
		s.log.Printf("subscribe messages for room %q: %s", roomId, err)
	}
	if err := s.registry.Open(KindRoomUsers, roomId, s.roomUsersHandler(roomId, false)); err != nil {
		s.log.Printf("subscribe participants for room %q: %s", roomId, err)
	}
	if err := s.registry.Open(KindRoomUsersAll, roomId, s.roomUsersHandler(roomId, true)); err != nil {
		s.log.Printf("subscribe all participants for room %q: %s", roomId, err)
	}
}

// handleSelectRoom switches which room is open. At most one room's topics
// are live at a time, so the previous room is fully closed before the new
// one is opened. An empty roomId closes the open room.
func (s *Session) handleSelectRoom(roomId string) {
	if prev := s.subscribedRoomId; prev != "" && prev != roomId {
		s.registry.CloseAllForRoom(prev)
		s.subscribedRoomId = ""
	}

	if roomId == "" {
		s.pendingRoomId = ""
		s.state.clearRoomView()
		return
	}

	if s.subscribedRoomId == roomId {
		return
	}

	s.state.clearRoomView()
	s.state.setCurrentRoom(roomId)
	s.pendingRoomId = roomId

	s.startRoomSnapshotFetch(roomId)
	if s.tr.State() == transport.Connected {
		s.startMembershipCheck(roomId)
	}
}

func (s *Session) startMembershipCheck(roomId string) {
	s.stats.Incr(stats.MembershipChecks)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		member, err := s.api.HasRoom(ctx, roomId)

		select {
		case s.checkCh <- &membershipResult{roomId: roomId, member: member, err: err}:
		case <-s.stop:
		}
	}()
}

// handleMembershipResult completes a pending room open. A result for a
// room the user has since navigated away from is discarded. On failure or
// a negative answer the pending room stays pending; a later reconnect or
// re-select runs the gate again.
func (s *Session) handleMembershipResult(res *membershipResult) {
	if res.roomId != s.pendingRoomId {
		s.log.Printf("discarding stale membership result for room %q", res.roomId)
		return
	}

	if res.err != nil {
		s.log.Printf("membership check for room %q: %s", res.roomId, res.err)
		return
	}
	if !res.member {
		s.log.Printf("not a member of room %q, leaving topics closed", res.roomId)
		return
	}

	s.openRoomTopics(res.roomId)
	s.subscribedRoomId = res.roomId
	s.pendingRoomId = ""
}

// handleRoomDeleted converges the pushed deletion event and the local
// optimistic removal after a REST delete or leave. Safe to run for rooms
// that were never open or are already gone.
func (s *Session) handleRoomDeleted(roomId string) {
	if s.subscribedRoomId == roomId {
		s.registry.CloseAllForRoom(roomId)
		s.subscribedRoomId = ""
	}
	if s.pendingRoomId == roomId {
		s.pendingRoomId = ""
	}

	s.reconciler.applyRoomDeleted(roomId)
}
