package types

import "fmt"

// kind of a mutex protocol message
type Kind uint8

const (
	KindEnter Kind = iota + 1
	KindAllow
	KindRelease
)

func (k Kind) String() string {
	switch k {
	case KindEnter:
		return "ENTER"
	case KindAllow:
		return "ALLOW"
	case KindRelease:
		return "RELEASE"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// reports whether k is one of the three protocol kinds
func (k Kind) Valid() bool {
	return k >= KindEnter && k <= KindRelease
}

// immutable (timestamp, sender, kind) triple exchanged between peers
type Message struct {
	Timestamp uint64
	Sender    PeerID
	Kind      Kind
}

// total order on messages: timestamp first, sender id breaks ties
func (m Message) Less(other Message) bool {
	if m.Timestamp != other.Timestamp {
		return m.Timestamp < other.Timestamp
	}
	return m.Sender < other.Sender
}

// compare-style total order, usable with slices.SortFunc
func (m Message) Compare(other Message) int {
	switch {
	case m.Less(other):
		return -1
	case other.Less(m):
		return 1
	default:
		return 0
	}
}

func (m Message) String() string {
	return fmt.Sprintf("(%d, %s, %s)", m.Timestamp, m.Sender, m.Kind)
}
