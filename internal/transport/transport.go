package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/teris-io/shortid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufSize    = 256
)

var (
	ErrNotConnected      = errors.New("transport: not connected")
	ErrAlreadyConnected  = errors.New("transport: already connected")
	ErrAlreadySubscribed = errors.New("transport: destination already subscribed")
	ErrSendBufferFull    = errors.New("transport: send buffer full")
)

// State is the connection state of the adapter. There is no automatic
// reconnection; after a drop the owner must run Connect again and re-open
// its subscriptions.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// HandlerFunc receives the raw body of a pushed message. Handlers are
// invoked on the read pump goroutine and must not block.
type HandlerFunc func(body []byte)

// StateFunc is notified on every connection-state transition.
type StateFunc func(State)

type Subscription struct {
	Id          string
	Destination string
	handler     HandlerFunc
}

// Conn owns a single websocket connection and multiplexes destination
// subscriptions over it. Subscriptions do not survive a connection reset.
type Conn struct {
	url     string
	log     *log.Logger
	stats   stats.StatsProvider
	onState StateFunc

	mu    sync.Mutex
	ws    *websocket.Conn
	state State
	subs  map[string]*Subscription
	send  chan *Frame
	stop  chan struct{}
}

func NewConn(url string, logger *log.Logger, sp stats.StatsProvider, onState StateFunc) *Conn {
	sp.RegisterMetric(stats.FramesReceived)

	return &Conn{
		url:     url,
		log:     logger,
		stats:   sp,
		onState: onState,
	}
}

// Connect dials the server with the bearer token and starts the read and
// write pumps. It fails if a connection is already up.
func (c *Conn) Connect(token string) error {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = Connecting
	c.mu.Unlock()
	c.notify(Connecting)

	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+token)

	ws, _, err := websocket.DefaultDialer.Dial(c.url, hdr)
	if err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		c.notify(Disconnected)
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.ws = ws
	c.subs = make(map[string]*Subscription)
	c.send = make(chan *Frame, sendBufSize)
	c.stop = make(chan struct{})
	c.state = Connected
	send, stop := c.send, c.stop
	c.mu.Unlock()

	go c.readPump(ws)
	go c.writePump(ws, send, stop)

	c.notify(Connected)
	return nil
}

// Disconnect closes the connection if one is up.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.teardown(ws)
	}
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe opens a server-side subscription on a destination. At most one
// subscription per destination is allowed at the transport level; the
// registry above enforces idempotency per logical key.
func (c *Conn) Subscribe(destination string, h HandlerFunc) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Connected {
		return nil, ErrNotConnected
	}
	if _, ok := c.subs[destination]; ok {
		return nil, ErrAlreadySubscribed
	}

	id, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate subscription id: %w", err)
	}

	f := &Frame{
		Id:        id,
		Timestamp: Now(),
		Subscribe: &Subscribe{Destination: destination},
	}
	select {
	case c.send <- f:
	default:
		return nil, ErrSendBufferFull
	}

	sub := &Subscription{Id: id, Destination: destination, handler: h}
	c.subs[destination] = sub

	return sub, nil
}

// Unsubscribe closes a subscription. It is a no-op if the subscription is
// not the live one for its destination, e.g. after a connection reset.
func (c *Conn) Unsubscribe(sub *Subscription) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.subs[sub.Destination]
	if !ok || cur != sub {
		return nil
	}
	delete(c.subs, sub.Destination)

	if c.state != Connected {
		return nil
	}

	f := &Frame{
		Id:          sub.Id,
		Timestamp:   Now(),
		Unsubscribe: &Unsubscribe{Destination: sub.Destination},
	}
	select {
	case c.send <- f:
	default:
		return ErrSendBufferFull
	}

	return nil
}

// Publish sends an application payload to a destination. While disconnected
// it fails fast; nothing is queued for retry.
func (c *Conn) Publish(destination string, body []byte) error {
	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	send := c.send
	c.mu.Unlock()

	id, err := shortid.Generate()
	if err != nil {
		return fmt.Errorf("generate frame id: %w", err)
	}

	f := &Frame{
		Id:        id,
		Timestamp: Now(),
		Send:      &Send{Destination: destination, Body: body},
	}
	select {
	case send <- f:
	default:
		return ErrSendBufferFull
	}

	return nil
}

func (c *Conn) readPump(ws *websocket.Conn) {
	defer c.teardown(ws)

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.log.Println("error parsing frame:", err)
			continue
		}

		c.dispatch(&f)
	}
}

func (c *Conn) writePump(ws *websocket.Conn, send chan *Frame, stop chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case f := <-send:
			bytes, err := json.Marshal(f)
			if err != nil {
				c.log.Println("failed to serialize frame:", err)
				continue
			}

			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, bytes); err != nil {
				c.log.Printf("write frame: %v", err)
				ws.Close()
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				ws.Close()
				return
			}
		case <-stop:
			return
		}
	}
}

func (c *Conn) dispatch(f *Frame) {
	switch {
	case f.Message != nil:
		c.stats.Incr(stats.FramesReceived)

		c.mu.Lock()
		sub := c.subs[f.Message.Destination]
		c.mu.Unlock()

		if sub == nil {
			c.log.Printf("no subscription for destination %q", f.Message.Destination)
			return
		}
		sub.handler(f.Message.Body)
	case f.Error != nil:
		c.log.Println("server rejected frame:", f.Error.Message)
	default:
		c.log.Println("unexpected frame")
	}
}

// teardown closes the connection once. A stale call for a connection that
// was already replaced is a no-op.
func (c *Conn) teardown(ws *websocket.Conn) {
	c.mu.Lock()
	if c.ws != ws {
		c.mu.Unlock()
		return
	}
	c.ws = nil
	c.subs = nil
	c.state = Disconnected
	close(c.stop)
	c.mu.Unlock()

	ws.Close()
	c.notify(Disconnected)
}

func (c *Conn) notify(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}
