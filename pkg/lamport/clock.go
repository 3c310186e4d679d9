package lamport

// Clock is a Lamport logical clock.
//
// It is owned by a single process loop and is not safe for concurrent use.
type Clock struct {
	time uint64
}

// NewClock returns a clock starting at zero.
func NewClock() *Clock {
	return &Clock{}
}

// Time returns the current value without advancing it.
func (c *Clock) Time() uint64 {
	return c.time
}

// Tick advances the clock before a send and returns the stamp to use.
func (c *Clock) Tick() uint64 {
	c.time++
	return c.time
}

// Witness merges a received timestamp: time = max(time, ts) + 1.
func (c *Clock) Witness(ts uint64) uint64 {
	c.time = max(c.time, ts) + 1
	return c.time
}
