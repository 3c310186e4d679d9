package time

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock provides monotonic time since process start
// instants are durations from a fixed start, so wall clock jumps never move them backwards
// the underlying clockwork clock is swapped for a fake one in tests
type Clock struct {
	base      clockwork.Clock
	startTime time.Time
}

func NewClock() *Clock {
	return NewClockFrom(clockwork.NewRealClock())
}

func NewClockFrom(base clockwork.Clock) *Clock {
	return &Clock{
		base:      base,
		startTime: base.Now(),
	}
}

// duration since start
func (c *Clock) Elapsed() time.Duration {
	return c.base.Since(c.startTime)
}

// time passed since an instant previously read from Elapsed
func (c *Clock) Since(mark time.Duration) time.Duration {
	return c.Elapsed() - mark
}

// returns the expiration instant given a ttl
func (c *Clock) ExpiresAt(ttl time.Duration) time.Duration {
	return c.Elapsed() + ttl
}

// wall time, only for journaling
func (c *Clock) Now() time.Time {
	return c.base.Now()
}

func (c *Clock) After(d time.Duration) <-chan time.Time {
	return c.base.After(d)
}
