package types

import (
	"fmt"
	"strings"
)

// group-assigned identifier of a peer process
// unique and stable for the lifetime of the group
type PeerID uint64

func (id PeerID) String() string {
	return fmt.Sprintf("Proc-%d", uint64(id))
}

// behavior pattern of a process
// an ACTIVE process competes for the critical section
// a PASSIVE process never requests it but grants permission to others
type Behavior string

const (
	Active  Behavior = "ACTIVE"
	Passive Behavior = "PASSIVE"
)

func ParseBehavior(s string) (Behavior, error) {
	switch b := Behavior(strings.ToUpper(strings.TrimSpace(s))); b {
	case Active, Passive:
		return b, nil
	default:
		return "", fmt.Errorf("unknown behavior %q", s)
	}
}
