package time

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestElapsedFollowsBaseClock(t *testing.T) {
	fake := clockwork.NewFakeClock()
	c := NewClockFrom(fake)

	assert.Equal(t, time.Duration(0), c.Elapsed())

	fake.Advance(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.Elapsed())
}

func TestSinceAndExpiresAt(t *testing.T) {
	fake := clockwork.NewFakeClock()
	c := NewClockFrom(fake)

	fake.Advance(time.Second)
	mark := c.Elapsed()
	expires := c.ExpiresAt(5 * time.Second)
	assert.Equal(t, 6*time.Second, expires)

	fake.Advance(2 * time.Second)
	assert.Equal(t, 2*time.Second, c.Since(mark))
}

func TestRealClockMovesForward(t *testing.T) {
	c := NewClock()
	first := c.Elapsed()
	time.Sleep(time.Millisecond)
	assert.Greater(t, c.Elapsed(), first)
}
