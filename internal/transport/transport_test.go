package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/npezzotti/go-chatclient/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBroker upgrades a single websocket connection and exposes the frames
// the client sends plus a way to push frames back.
type fakeBroker struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu       sync.Mutex
	ws       *websocket.Conn
	received chan *Frame
	authz    chan string
}

func newFakeBroker(t *testing.T) (*fakeBroker, *httptest.Server) {
	b := &fakeBroker{
		t:        t,
		received: make(chan *Frame, 16),
		authz:    make(chan string, 4),
	}
	srv := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBroker) serve(w http.ResponseWriter, r *http.Request) {
	b.authz <- r.Header.Get("Authorization")

	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.t.Error("upgrade:", err)
		return
	}

	b.mu.Lock()
	b.ws = ws
	b.mu.Unlock()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			b.t.Error("parse frame:", err)
			continue
		}
		b.received <- &f
	}
}

func (b *fakeBroker) push(t *testing.T, f *Frame) {
	t.Helper()

	b.mu.Lock()
	ws := b.ws
	b.mu.Unlock()
	require.NotNil(t, ws)

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, raw))
}

func (b *fakeBroker) nextFrame(t *testing.T) *Frame {
	t.Helper()

	select {
	case f := <-b.received:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForState(t *testing.T, states chan State, want State) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func newTestConn(t *testing.T, srv *httptest.Server) (*Conn, chan State) {
	t.Helper()

	states := make(chan State, 16)
	c := NewConn(wsURL(srv), testutil.TestLogger(t), stats.NoopStats{}, func(s State) {
		states <- s
	})
	t.Cleanup(c.Disconnect)
	return c, states
}

func TestConn_ConnectSendsBearerToken(t *testing.T) {
	broker, srv := newFakeBroker(t)
	c, states := newTestConn(t, srv)

	require.NoError(t, c.Connect("tok-123"))
	waitForState(t, states, Connected)

	assert.Equal(t, "Bearer tok-123", <-broker.authz)
	assert.Equal(t, Connected, c.State())
}

func TestConn_ConnectTwice(t *testing.T) {
	_, srv := newFakeBroker(t)
	c, states := newTestConn(t, srv)

	require.NoError(t, c.Connect("tok"))
	waitForState(t, states, Connected)

	assert.ErrorIs(t, c.Connect("tok"), ErrAlreadyConnected)
}

func TestConn_ConnectDialFailure(t *testing.T) {
	states := make(chan State, 16)
	c := NewConn("ws://127.0.0.1:1", testutil.TestLogger(t), stats.NoopStats{}, func(s State) {
		states <- s
	})

	assert.Error(t, c.Connect("tok"))
	waitForState(t, states, Disconnected)
	assert.Equal(t, Disconnected, c.State())
}

func TestConn_SubscribeSendsFrame(t *testing.T) {
	broker, srv := newFakeBroker(t)
	c, states := newTestConn(t, srv)

	require.NoError(t, c.Connect("tok"))
	waitForState(t, states, Connected)

	sub, err := c.Subscribe("/topic/rooms", func([]byte) {})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.Id)

	f := broker.nextFrame(t)
	require.NotNil(t, f.Subscribe)
	assert.Equal(t, "/topic/rooms", f.Subscribe.Destination)
	assert.Equal(t, sub.Id, f.Id)
}

func TestConn_SubscribeDuplicateDestination(t *testing.T) {
	_, srv := newFakeBroker(t)
	c, states := newTestConn(t, srv)

	require.NoError(t, c.Connect("tok"))
	waitForState(t, states, Connected)

	_, err := c.Subscribe("/topic/rooms", func([]byte) {})
	require.NoError(t, err)

	_, err = c.Subscribe("/topic/rooms", func([]byte) {})
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestConn_SubscribeWhileDisconnected(t *testing.T) {
	c := NewConn("ws://example.invalid/ws", testutil.TestLogger(t), stats.NoopStats{}, nil)

	_, err := c.Subscribe("/topic/rooms", func([]byte) {})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConn_UnsubscribeSendsFrame(t *testing.T) {
	broker, srv := newFakeBroker(t)
	c, states := newTestConn(t, srv)

	require.NoError(t, c.Connect("tok"))
	waitForState(t, states, Connected)

	sub, err := c.Subscribe("/topic/rooms", func([]byte) {})
	require.NoError(t, err)
	broker.nextFrame(t)

	require.NoError(t, c.Unsubscribe(sub))

	f := broker.nextFrame(t)
	require.NotNil(t, f.Unsubscribe)
	assert.Equal(t, "/topic/rooms", f.Unsubscribe.Destination)

	// a second unsubscribe for the same subscription is a no-op
	require.NoError(t, c.Unsubscribe(sub))
}

func TestConn_PublishSendsFrame(t *testing.T) {
	broker, srv := newFakeBroker(t)
	c, states := newTestConn(t, srv)

	require.NoError(t, c.Connect("tok"))
	waitForState(t, states, Connected)

	require.NoError(t, c.Publish("/app/chat.sendMessage/room-1", []byte(`{"content":"hi"}`)))

	f := broker.nextFrame(t)
	require.NotNil(t, f.Send)
	assert.Equal(t, "/app/chat.sendMessage/room-1", f.Send.Destination)
	assert.JSONEq(t, `{"content":"hi"}`, string(f.Send.Body))
}

func TestConn_PublishWhileDisconnected(t *testing.T) {
	c := NewConn("ws://example.invalid/ws", testutil.TestLogger(t), stats.NoopStats{}, nil)

	err := c.Publish("/app/chat.sendMessage/room-1", []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConn_DispatchesMessageToSubscriber(t *testing.T) {
	broker, srv := newFakeBroker(t)
	c, states := newTestConn(t, srv)

	require.NoError(t, c.Connect("tok"))
	waitForState(t, states, Connected)

	bodies := make(chan []byte, 1)
	_, err := c.Subscribe("/topic/room/room-1", func(body []byte) {
		bodies <- body
	})
	require.NoError(t, err)
	broker.nextFrame(t)

	broker.push(t, &Frame{
		Id:        "f1",
		Timestamp: Now(),
		Message: &Message{
			SubscriptionId: "s1",
			Destination:    "/topic/room/room-1",
			Body:           json.RawMessage(`{"id":"m1","content":"hello"}`),
		},
	})

	select {
	case body := <-bodies:
		assert.JSONEq(t, `{"id":"m1","content":"hello"}`, string(body))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatched message")
	}
}

func TestConn_DisconnectNotifiesAndResets(t *testing.T) {
	_, srv := newFakeBroker(t)
	c, states := newTestConn(t, srv)

	require.NoError(t, c.Connect("tok"))
	waitForState(t, states, Connected)

	c.Disconnect()
	waitForState(t, states, Disconnected)
	assert.Equal(t, Disconnected, c.State())

	// subscriptions do not survive the reset
	_, err := c.Subscribe("/topic/rooms", func([]byte) {})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConn_ServerCloseTriggersDisconnected(t *testing.T) {
	broker, srv := newFakeBroker(t)
	c, states := newTestConn(t, srv)

	require.NoError(t, c.Connect("tok"))
	waitForState(t, states, Connected)

	broker.mu.Lock()
	broker.ws.Close()
	broker.mu.Unlock()

	waitForState(t, states, Disconnected)
}

func TestConn_Reconnect(t *testing.T) {
	broker, srv := newFakeBroker(t)
	c, states := newTestConn(t, srv)

	require.NoError(t, c.Connect("tok"))
	waitForState(t, states, Connected)

	c.Disconnect()
	waitForState(t, states, Disconnected)

	require.NoError(t, c.Connect("tok"))
	waitForState(t, states, Connected)
	assert.Equal(t, "Bearer tok", <-broker.authz)
	<-broker.authz
}
