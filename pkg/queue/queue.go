package queue

import (
	"slices"

	"github.com/pixperk/lamlock/pkg/types"
)

// Queue is a process-local view of in-flight ENTER and ALLOW messages,
// kept sorted by the (timestamp, sender) total order.
//
// Invariants:
//   - entries are always sorted
//   - no entry is queued twice; a sender's request lifecycle is identified
//     by its timestamp, so (sender, kind, timestamp) is unique
//   - after Cleanup the head is never an ALLOW
//
// A Queue is owned by one process loop and is not safe for concurrent use.
type Queue struct {
	entries []types.Message
}

func New() *Queue {
	return &Queue{}
}

// Enqueue inserts msg at its sorted position.
// It returns false, leaving the queue untouched, when the same message is
// already queued (e.g. a redelivery).
func (q *Queue) Enqueue(msg types.Message) bool {
	i, found := slices.BinarySearchFunc(q.entries, msg, types.Message.Compare)
	for ; found && i < len(q.entries) && q.entries[i].Compare(msg) == 0; i++ {
		if q.entries[i].Kind == msg.Kind {
			return false
		}
	}

	q.entries = slices.Insert(q.entries, i, msg)
	return true
}

// Cleanup drops leading ALLOW entries until the head is an ENTER or the
// queue is empty. ALLOWs older than the oldest live ENTER are stale.
// It returns how many entries were dropped.
func (q *Queue) Cleanup() int {
	n := 0
	for n < len(q.entries) && q.entries[n].Kind == types.KindAllow {
		n++
	}
	q.entries = q.entries[n:]
	return n
}

// RemoveEnter deletes the first queued ENTER from sender.
// It returns false when no such ENTER is queued.
func (q *Queue) RemoveEnter(sender types.PeerID) bool {
	i := slices.IndexFunc(q.entries, func(m types.Message) bool {
		return m.Sender == sender && m.Kind == types.KindEnter
	})
	if i < 0 {
		return false
	}
	q.entries = slices.Delete(q.entries, i, i+1)
	return true
}

// Purge removes every entry sent by sender and returns how many were removed.
func (q *Queue) Purge(sender types.PeerID) int {
	before := len(q.entries)
	q.entries = slices.DeleteFunc(q.entries, func(m types.Message) bool {
		return m.Sender == sender
	})
	return before - len(q.entries)
}

// KeepEntersAfterHead rebuilds the queue from the ENTERs behind the head,
// discarding the head and every ALLOW.
func (q *Queue) KeepEntersAfterHead() {
	if len(q.entries) == 0 {
		return
	}
	rest := make([]types.Message, 0, len(q.entries)-1)
	for _, m := range q.entries[1:] {
		if m.Kind == types.KindEnter {
			rest = append(rest, m)
		}
	}
	q.entries = rest
}

func (q *Queue) Head() (types.Message, bool) {
	if len(q.entries) == 0 {
		return types.Message{}, false
	}
	return q.entries[0], true
}

func (q *Queue) Len() int {
	return len(q.entries)
}

// Entries returns a copy of the queue contents in order.
func (q *Queue) Entries() []types.Message {
	return slices.Clone(q.entries)
}

// LaterSenders returns the set of senders with at least one entry behind
// the head. One entry per sender is enough to count as an answer.
func (q *Queue) LaterSenders() map[types.PeerID]struct{} {
	senders := make(map[types.PeerID]struct{})
	if len(q.entries) < 2 {
		return senders
	}
	for _, m := range q.entries[1:] {
		senders[m.Sender] = struct{}{}
	}
	return senders
}

// HasEnterFrom reports whether an ENTER from id is queued.
func (q *Queue) HasEnterFrom(id types.PeerID) bool {
	return slices.ContainsFunc(q.entries, func(m types.Message) bool {
		return m.Sender == id && m.Kind == types.KindEnter
	})
}

func (q *Queue) String() string {
	s := "["
	for i, m := range q.entries {
		if i > 0 {
			s += ", "
		}
		s += m.String()
	}
	return s + "]"
}
