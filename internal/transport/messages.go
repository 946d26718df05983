package transport

import (
	"encoding/json"
	"time"
)

// Frame is the wire envelope exchanged on the websocket. Exactly one of
// the variant fields is set per frame.
type Frame struct {
	Id        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`

	Subscribe   *Subscribe   `json:"subscribe,omitempty"`
	Unsubscribe *Unsubscribe `json:"unsubscribe,omitempty"`
	Send        *Send        `json:"send,omitempty"`
	Message     *Message     `json:"message,omitempty"`
	Error       *Error       `json:"error,omitempty"`
}

// Subscribe opens a server-side subscription on a destination.
type Subscribe struct {
	Destination string `json:"destination"`
}

// Unsubscribe closes the subscription previously opened with the same id.
type Unsubscribe struct {
	Destination string `json:"destination"`
}

// Send carries an outbound application payload to a destination.
type Send struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// Message is a server-pushed payload on a subscribed destination.
type Message struct {
	SubscriptionId string          `json:"subscription_id,omitempty"`
	Destination    string          `json:"destination"`
	Body           json.RawMessage `json:"body"`
}

// Error is a frame-level rejection from the server.
type Error struct {
	Message string `json:"message"`
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
