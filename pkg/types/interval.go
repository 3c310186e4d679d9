package types

import "time"

// an interval records one occupation of the critical section
// enter/leave clocks are the logical clock values at entry and release
// wall times are only used for offline verification on a single host
type Interval struct {
	Peer       PeerID    `json:"peer"`
	Name       string    `json:"name"`
	EnterClock uint64    `json:"enter_clock"`
	LeaveClock uint64    `json:"leave_clock"`
	EnteredAt  time.Time `json:"entered_at"`
	LeftAt     time.Time `json:"left_at"`
}

// checks if two intervals overlap in wall time
func (i Interval) Overlaps(other Interval) bool {
	return i.EnteredAt.Before(other.LeftAt) && other.EnteredAt.Before(i.LeftAt)
}

func (i Interval) Duration() time.Duration {
	return i.LeftAt.Sub(i.EnteredAt)
}
