package mutex

import (
	"context"
	"time"

	"github.com/pixperk/lamlock/pkg/types"
)

// Delivery is a message handed out by the group channel together with the
// channel-level id of the member that sent it.
type Delivery struct {
	From    types.PeerID
	Message types.Message
}

// Channel is the group communication substrate a Process runs on.
//
// Delivery is best-effort and unordered; the logical clock carried in each
// message is the only ordering the Process relies on.
type Channel interface {
	// Join registers in the named group and returns a unique, stable id.
	Join(ctx context.Context, group string) (types.PeerID, error)
	// Bind activates receipt of messages addressed to id.
	Bind(ctx context.Context, id types.PeerID) error
	// Subgroup returns a snapshot of the group's current members.
	Subgroup(ctx context.Context, group string) ([]types.PeerID, error)
	// SendTo multicasts msg to every target.
	SendTo(ctx context.Context, targets []types.PeerID, msg types.Message) error
	// ReceiveFrom blocks until a message from one of sources arrives or the
	// timeout expires. ok is false on timeout.
	ReceiveFrom(ctx context.Context, sources []types.PeerID, timeout time.Duration) (d Delivery, ok bool, err error)
	// Leave deregisters id.
	Leave(ctx context.Context, id types.PeerID) error
}

// Recorder receives every completed critical section interval.
type Recorder interface {
	Record(ctx context.Context, interval types.Interval) error
}

// CriticalSection is the work done while holding the mutex.
type CriticalSection func(ctx context.Context, hold time.Duration) error
