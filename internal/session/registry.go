package session

import (
	"fmt"
	"log"
	"slices"

	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/npezzotti/go-chatclient/internal/transport"
)

// Transport is the subset of the transport adapter the session consumes.
type Transport interface {
	Connect(token string) error
	Disconnect()
	State() transport.State
	Publish(destination string, body []byte) error
	Subscribe(destination string, h transport.HandlerFunc) (*transport.Subscription, error)
	Unsubscribe(sub *transport.Subscription) error
}

type record struct {
	kind   string
	roomId string
	sub    *transport.Subscription
}

// Registry tracks the active (kind, roomScope) subscription set. It is
// driven only by the session loop, so it needs no locking of its own.
// Records are kept in insertion order; the order carries no semantic
// guarantee.
type Registry struct {
	log     *log.Logger
	tr      Transport
	stats   stats.StatsProvider
	records []*record
}

func NewRegistry(tr Transport, logger *log.Logger, sp stats.StatsProvider) *Registry {
	sp.RegisterMetric(stats.ActiveSubscriptions)

	return &Registry{
		log:   logger,
		tr:    tr,
		stats: sp,
	}
}

// Open subscribes to the destination for (kind, roomId). If a subscription
// with the same key already exists it is left untouched, never
// double-opened.
func (r *Registry) Open(kind, roomId string, h transport.HandlerFunc) error {
	if r.find(kind, roomId) != nil {
		return nil
	}

	dest := destinationFor(kind, roomId)
	sub, err := r.tr.Subscribe(dest, h)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", dest, err)
	}

	r.records = append(r.records, &record{kind: kind, roomId: roomId, sub: sub})
	r.stats.Incr(stats.ActiveSubscriptions)

	return nil
}

// Close unsubscribes and removes the (kind, roomId) record. A no-op if
// absent.
func (r *Registry) Close(kind, roomId string) {
	for i, rec := range r.records {
		if rec.kind == kind && rec.roomId == roomId {
			if err := r.tr.Unsubscribe(rec.sub); err != nil {
				r.log.Printf("unsubscribe %s: %v", rec.sub.Destination, err)
			}
			r.records = slices.Delete(r.records, i, i+1)
			r.stats.Decr(stats.ActiveSubscriptions)
			return
		}
	}
}

// CloseAllForRoom closes every per-room subscription bound to roomId.
func (r *Registry) CloseAllForRoom(roomId string) {
	if roomId == "" {
		return
	}

	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.roomId != roomId {
			kept = append(kept, rec)
			continue
		}

		if err := r.tr.Unsubscribe(rec.sub); err != nil {
			r.log.Printf("unsubscribe %s: %v", rec.sub.Destination, err)
		}
		r.stats.Decr(stats.ActiveSubscriptions)
	}

	r.records = kept
}

// Reset drops all records without sending unsubscribe frames. Used after a
// connection reset, when the transport has already forgotten every
// subscription.
func (r *Registry) Reset() {
	for range r.records {
		r.stats.Decr(stats.ActiveSubscriptions)
	}
	r.records = nil
}

// Len returns the number of active subscription records.
func (r *Registry) Len() int {
	return len(r.records)
}

func (r *Registry) find(kind, roomId string) *record {
	for _, rec := range r.records {
		if rec.kind == kind && rec.roomId == roomId {
			return rec
		}
	}

	return nil
}
