package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/npezzotti/go-chatclient/internal/api"
	"github.com/npezzotti/go-chatclient/internal/auth"
	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/npezzotti/go-chatclient/internal/transport"
	"github.com/npezzotti/go-chatclient/internal/types"
)

const (
	eventBufSize   = 256
	requestTimeout = 10 * time.Second
)

type membershipResult struct {
	roomId string
	member bool
	err    error
}

// snapshot carries REST snapshot results back into the session loop. A
// room snapshot has roomId set; a root snapshot (rooms and profile) does
// not.
type snapshot struct {
	roomId       string
	messages     []types.Message
	roomUsers    []types.RoomUser
	allRoomUsers []types.RoomUser
	rooms        []types.Room
	profile      *types.User
	err          error
}

type command struct {
	selectRoom   *selectRoomCmd
	sendMessage  *sendMessageCmd
	refreshUsers *refreshUsersCmd
	removeRoom   *removeRoomCmd
	upsertRoom   *upsertRoomCmd
	setProfile   *setProfileCmd
	refresh      *refreshCmd
}

type selectRoomCmd struct {
	// empty roomId closes the open room without selecting a new one
	roomId string
}

type sendMessageCmd struct {
	roomId  string
	content string
}

type refreshUsersCmd struct {
	roomId string
}

type removeRoomCmd struct {
	roomId string
}

type upsertRoomCmd struct {
	room types.Room
	open bool
}

type setProfileCmd struct {
	user types.User
}

type refreshCmd struct{}

// Session owns the push connection's logical state: which topics are
// subscribed, which room is open, and the reconciled room, message and
// participant collections. All state transitions run on a single loop
// goroutine; handlers run to completion before the next event is taken.
type Session struct {
	log   *log.Logger
	tr    Transport
	api   api.RoomService
	stats stats.StatsProvider
	token string

	state      *SessionState
	listeners  *Listeners
	registry   *Registry
	reconciler *Reconciler
	publisher  *Publisher

	eventCh chan *pushEvent
	stateCh chan transport.State
	checkCh chan *membershipResult
	snapCh  chan *snapshot
	cmdCh   chan *command
	stop    chan struct{}
	done    chan struct{}

	// coordinator state, owned by the loop goroutine
	pendingRoomId    string
	subscribedRoomId string
	wasConnected     bool
}

func NewSession(tr Transport, rs api.RoomService, logger *log.Logger, sp stats.StatsProvider, token string) *Session {
	sp.RegisterMetric(stats.EventsDropped)
	sp.RegisterMetric(stats.Reconnects)
	sp.RegisterMetric(stats.MembershipChecks)

	state := NewSessionState()
	listeners := &Listeners{}

	return &Session{
		log:        logger,
		tr:         tr,
		api:        rs,
		stats:      sp,
		token:      token,
		state:      state,
		listeners:  listeners,
		registry:   NewRegistry(tr, logger, sp),
		reconciler: NewReconciler(state, listeners, logger),
		publisher:  NewPublisher(tr, logger, sp),
		eventCh:    make(chan *pushEvent, eventBufSize),
		stateCh:    make(chan transport.State, 8),
		checkCh:    make(chan *membershipResult, 8),
		snapCh:     make(chan *snapshot, 8),
		cmdCh:      make(chan *command, 64),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the session loop and connects the transport. A session
// cannot be started with an expired token.
func (s *Session) Start() error {
	if auth.Expired(s.token) {
		return fmt.Errorf("token is expired")
	}

	go s.run()
	s.Refresh()

	if err := s.tr.Connect(s.token); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	return nil
}

// Reconnect re-runs the connect sequence after a drop. Global topics and
// the open room's topics are re-established by the loop on connection-up.
func (s *Session) Reconnect() error {
	return s.tr.Connect(s.token)
}

func (s *Session) Close() {
	s.tr.Disconnect()
	close(s.stop)
	<-s.done
}

// State exposes the reconciled collections through read accessors.
func (s *Session) State() *SessionState {
	return s.state
}

// Listeners exposes per-event-kind callback registration.
func (s *Session) Listeners() *Listeners {
	return s.listeners
}

// ConnectionStateChanged feeds transport state transitions into the loop.
// Wired as the transport adapter's state callback.
func (s *Session) ConnectionStateChanged(st transport.State) {
	select {
	case s.stateCh <- st:
	case <-s.stop:
	}
}

// SelectRoom switches the open room. The previous room's topics are closed
// before the new room's are opened; the subscribe itself is gated on a
// server-side membership confirmation.
func (s *Session) SelectRoom(roomId string) {
	s.enqueueCommand(&command{selectRoom: &selectRoomCmd{roomId: roomId}})
}

// ClearRoom closes the open room without selecting another.
func (s *Session) ClearRoom() {
	s.enqueueCommand(&command{selectRoom: &selectRoomCmd{}})
}

// SendMessage publishes a chat message from the cached profile. Delivery
// is best-effort; the local message list is only updated when the message
// comes back on the room topic.
func (s *Session) SendMessage(roomId, content string) {
	s.enqueueCommand(&command{sendMessage: &sendMessageCmd{roomId: roomId, content: content}})
}

// RefreshParticipants triggers a server re-broadcast of both participant
// snapshots for the room.
func (s *Session) RefreshParticipants(roomId string) {
	s.enqueueCommand(&command{refreshUsers: &refreshUsersCmd{roomId: roomId}})
}

// Refresh reloads the room list and profile snapshots over REST.
func (s *Session) Refresh() {
	s.enqueueCommand(&command{refresh: &refreshCmd{}})
}

// CreateRoom creates a room over REST and adds it to the local list.
func (s *Session) CreateRoom(ctx context.Context, name string) (types.Room, error) {
	room, err := s.api.CreateRoom(ctx, name)
	if err != nil {
		return types.Room{}, fmt.Errorf("create room: %w", err)
	}

	s.enqueueCommand(&command{upsertRoom: &upsertRoomCmd{room: room}})
	return room, nil
}

// RenameRoom renames a room over REST. Other members converge through the
// pushed room-updated event; the acting client applies the REST response
// directly.
func (s *Session) RenameRoom(ctx context.Context, roomId, name string) (types.Room, error) {
	room, err := s.api.RenameRoom(ctx, roomId, name)
	if err != nil {
		return types.Room{}, fmt.Errorf("rename room: %w", err)
	}

	s.enqueueCommand(&command{upsertRoom: &upsertRoomCmd{room: room}})
	return room, nil
}

// DeleteRoom deletes the room over REST and removes it locally without
// waiting for the pushed deletion event; the two paths converge.
func (s *Session) DeleteRoom(ctx context.Context, roomId string) error {
	if err := s.api.DeleteRoom(ctx, roomId); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}

	s.enqueueCommand(&command{removeRoom: &removeRoomCmd{roomId: roomId}})
	return nil
}

// LeaveRoom leaves the room over REST, removes it locally and asks the
// server to refresh the remaining members' participant lists.
func (s *Session) LeaveRoom(ctx context.Context, roomId string) error {
	if err := s.api.LeaveRoom(ctx, roomId); err != nil {
		return fmt.Errorf("leave room: %w", err)
	}

	s.enqueueCommand(&command{removeRoom: &removeRoomCmd{roomId: roomId}})
	s.enqueueCommand(&command{refreshUsers: &refreshUsersCmd{roomId: roomId}})
	return nil
}

// SaveProfile updates the user's profile over REST. Other clients converge
// through the pushed profile event; the acting client applies the response
// directly.
func (s *Session) SaveProfile(ctx context.Context, user types.User) (types.User, error) {
	saved, err := s.api.SaveProfile(ctx, user)
	if err != nil {
		return types.User{}, fmt.Errorf("save profile: %w", err)
	}

	s.enqueueCommand(&command{setProfile: &setProfileCmd{user: saved}})
	return saved, nil
}

// Invite creates an invitation token for the room.
func (s *Session) Invite(ctx context.Context, roomId string) (types.Invitation, error) {
	return s.api.CreateInvitation(ctx, roomId)
}

// AcceptInvitation joins a room by invitation token and opens it. The
// membership gate closes the race between the server-side membership
// write and the subscribe.
func (s *Session) AcceptInvitation(ctx context.Context, token string) (types.Room, error) {
	room, err := s.api.AcceptInvitation(ctx, token)
	if err != nil {
		return types.Room{}, fmt.Errorf("accept invitation: %w", err)
	}

	s.enqueueCommand(&command{upsertRoom: &upsertRoomCmd{room: room, open: true}})
	s.enqueueCommand(&command{refreshUsers: &refreshUsersCmd{roomId: room.Id}})
	return room, nil
}

func (s *Session) run() {
	defer close(s.done)

	for {
		select {
		case st := <-s.stateCh:
			s.handleConnState(st)
		case ev := <-s.eventCh:
			s.handleEvent(ev)
		case res := <-s.checkCh:
			s.handleMembershipResult(res)
		case snap := <-s.snapCh:
			s.handleSnapshot(snap)
		case cmd := <-s.cmdCh:
			s.handleCommand(cmd)
		case <-s.stop:
			return
		}
	}
}

func (s *Session) handleEvent(ev *pushEvent) {
	switch {
	case ev.roomUpdate != nil:
		s.reconciler.applyRoomUpdate(ev.roomUpdate)
	case ev.roomDeleted != nil:
		s.handleRoomDeleted(ev.roomDeleted.Id)
	case ev.message != nil:
		s.reconciler.applyMessage(ev.message)
	case ev.roomUsers != nil:
		s.reconciler.applyRoomUsers(ev.roomUsers)
	case ev.allRoomUsers != nil:
		s.reconciler.applyAllRoomUsers(ev.allRoomUsers)
	case ev.profile != nil:
		s.reconciler.applyProfile(ev.profile)
	}
}

func (s *Session) handleCommand(cmd *command) {
	switch {
	case cmd.selectRoom != nil:
		s.handleSelectRoom(cmd.selectRoom.roomId)
	case cmd.sendMessage != nil:
		s.publisher.SendMessage(cmd.sendMessage.roomId, cmd.sendMessage.content, s.state.Profile())
	case cmd.refreshUsers != nil:
		s.publisher.RefreshParticipants(cmd.refreshUsers.roomId)
	case cmd.removeRoom != nil:
		s.handleRoomDeleted(cmd.removeRoom.roomId)
	case cmd.upsertRoom != nil:
		s.state.upsertRoom(cmd.upsertRoom.room)
		s.listeners.fireRoomUpdated(cmd.upsertRoom.room)
		if cmd.upsertRoom.open {
			s.handleSelectRoom(cmd.upsertRoom.room.Id)
		}
	case cmd.setProfile != nil:
		s.state.setProfile(cmd.setProfile.user)
		s.listeners.fireProfileUpdated(cmd.setProfile.user)
	case cmd.refresh != nil:
		s.startRootSnapshotFetch()
	}
}

func (s *Session) handleSnapshot(snap *snapshot) {
	if snap.err != nil {
		s.log.Println("snapshot fetch:", snap.err)
		return
	}

	if snap.roomId == "" {
		s.state.setRooms(snap.rooms)
		if snap.profile != nil {
			s.state.setProfile(*snap.profile)
		}
		return
	}

	// the user may have navigated away while the fetch was in flight
	if snap.roomId != s.state.CurrentRoomId() {
		s.log.Printf("dropping stale snapshot for room %q", snap.roomId)
		return
	}

	s.state.setMessages(snap.messages)
	s.state.setRoomUsers(snap.roomUsers)
	s.state.setAllRoomUsers(snap.allRoomUsers)
}

func (s *Session) startRootSnapshotFetch() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		snap := &snapshot{}
		rooms, err := s.api.Rooms(ctx)
		if err != nil {
			snap.err = fmt.Errorf("fetch rooms: %w", err)
			s.postSnapshot(snap)
			return
		}
		snap.rooms = rooms

		profile, err := s.api.Profile(ctx)
		if err != nil {
			snap.err = fmt.Errorf("fetch profile: %w", err)
			s.postSnapshot(snap)
			return
		}
		snap.profile = &profile

		s.postSnapshot(snap)
	}()
}

func (s *Session) startRoomSnapshotFetch(roomId string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		snap := &snapshot{roomId: roomId}

		msgs, err := s.api.Messages(ctx, roomId)
		if err != nil {
			snap.err = fmt.Errorf("fetch messages for room %q: %w", roomId, err)
			s.postSnapshot(snap)
			return
		}
		snap.messages = msgs

		users, err := s.api.RoomUsers(ctx, roomId)
		if err != nil {
			snap.err = fmt.Errorf("fetch participants for room %q: %w", roomId, err)
			s.postSnapshot(snap)
			return
		}
		snap.roomUsers = users

		allUsers, err := s.api.AllRoomUsers(ctx, roomId)
		if err != nil {
			snap.err = fmt.Errorf("fetch all participants for room %q: %w", roomId, err)
			s.postSnapshot(snap)
			return
		}
		snap.allRoomUsers = allUsers

		s.postSnapshot(snap)
	}()
}

func (s *Session) postSnapshot(snap *snapshot) {
	select {
	case s.snapCh <- snap:
	case <-s.stop:
	}
}

func (s *Session) enqueueCommand(cmd *command) {
	select {
	case s.cmdCh <- cmd:
	default:
		s.log.Println("dropping command, queue is full")
	}
}

func (s *Session) enqueueEvent(ev *pushEvent) {
	select {
	case s.eventCh <- ev:
	default:
		s.log.Println("dropping inbound event, queue is full")
		s.stats.Incr(stats.EventsDropped)
	}
}

// Frame handlers below decode raw topic payloads on the transport's read
// goroutine and hand them to the loop. They never mutate state directly.

func (s *Session) handleRoomsFrame(body []byte) {
	var ev RoomEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		s.log.Println("error parsing room update:", err)
		return
	}
	if ev.Type != eventTypeUserRoom {
		return
	}

	s.enqueueEvent(&pushEvent{roomUpdate: &ev})
}

func (s *Session) handleRoomDeletedFrame(body []byte) {
	var ev RoomDeletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		s.log.Println("error parsing room deletion:", err)
		return
	}
	if ev.Type != eventTypeUserRoomDelete {
		return
	}

	s.enqueueEvent(&pushEvent{roomDeleted: &ev})
}

func (s *Session) handleUserUpdateFrame(body []byte) {
	var ev ProfileEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		s.log.Println("error parsing profile update:", err)
		return
	}

	s.enqueueEvent(&pushEvent{profile: &ev})
}

// handleErrorFrame logs server-side validation rejections from the private
// error queue. They mutate nothing.
func (s *Session) handleErrorFrame(body []byte) {
	s.log.Println("message validation error:", string(body))
}

func (s *Session) roomMessageHandler(roomId string) transport.HandlerFunc {
	return func(body []byte) {
		var msg types.Message
		if err := json.Unmarshal(body, &msg); err != nil {
			s.log.Println("error parsing message:", err)
			return
		}
		if msg.Type != "" && msg.Type != eventTypeMessage {
			return
		}
		if msg.RoomId == "" {
			msg.RoomId = roomId
		}

		s.enqueueEvent(&pushEvent{message: &msg})
	}
}

func (s *Session) roomUsersHandler(roomId string, all bool) transport.HandlerFunc {
	return func(body []byte) {
		var users []types.RoomUser
		if err := json.Unmarshal(body, &users); err != nil {
			s.log.Println("error parsing participant snapshot:", err)
			return
		}

		ev := &participantsEvent{roomId: roomId, users: users}
		if all {
			s.enqueueEvent(&pushEvent{allRoomUsers: ev})
		} else {
			s.enqueueEvent(&pushEvent{roomUsers: ev})
		}
	}
}
