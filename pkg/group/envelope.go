package group

import (
	"github.com/google/uuid"
	"github.com/pixperk/lamlock/pkg/types"
)

// Envelope is the unit the hub moves between members.
// The id lets receivers drop redeliveries.
type Envelope struct {
	ID      uuid.UUID
	From    types.PeerID
	Message types.Message
}

func NewEnvelope(from types.PeerID, msg types.Message) Envelope {
	return Envelope{ID: uuid.New(), From: from, Message: msg}
}

// Dedup remembers the most recent envelope ids.
// Not safe for concurrent use.
type Dedup struct {
	seen  map[uuid.UUID]struct{}
	ring  []uuid.UUID
	next  int
	count int
}

func NewDedup(size int) *Dedup {
	if size <= 0 {
		size = 1024
	}
	return &Dedup{
		seen: make(map[uuid.UUID]struct{}, size),
		ring: make([]uuid.UUID, size),
	}
}

// Seen records id and reports whether it had been recorded before.
func (d *Dedup) Seen(id uuid.UUID) bool {
	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.count == len(d.ring) {
		delete(d.seen, d.ring[d.next])
	} else {
		d.count++
	}
	d.ring[d.next] = id
	d.next = (d.next + 1) % len(d.ring)
	d.seen[id] = struct{}{}
	return false
}
