package mutex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRandomPolicyHoldBounds(t *testing.T) {
	p := NewRandomPolicy(42, 20*time.Millisecond)
	for i := 0; i < 200; i++ {
		hold := p.HoldDuration()
		assert.GreaterOrEqual(t, hold, time.Duration(0))
		assert.LessOrEqual(t, hold, 20*time.Millisecond)
	}

	assert.Equal(t, time.Duration(0), NewRandomPolicy(1, 0).HoldDuration())
}

// TestRandomPolicyIsSeeded tests that a seed makes decisions reproducible
func TestRandomPolicyIsSeeded(t *testing.T) {
	a, b := NewRandomPolicy(7, time.Second), NewRandomPolicy(7, time.Second)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.WantsToEnter(), b.WantsToEnter())
		assert.Equal(t, a.WantsToServe(), b.WantsToServe())
		assert.Equal(t, a.HoldDuration(), b.HoldDuration())
	}
}

func TestLimitedPolicy(t *testing.T) {
	p := &LimitedPolicy{Rounds: 2, Hold: time.Millisecond}

	assert.True(t, p.WantsToEnter())
	assert.True(t, p.WantsToEnter())
	assert.False(t, p.WantsToEnter())
	assert.True(t, p.WantsToServe())
	assert.Equal(t, time.Millisecond, p.HoldDuration())

	unlimited := &LimitedPolicy{Rounds: -1}
	for i := 0; i < 10; i++ {
		assert.True(t, unlimited.WantsToEnter())
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "IDLE", Idle.String())
	assert.Equal(t, "REQUESTING", Requesting.String())
	assert.Equal(t, "IN_CS", InCS.String())
}
