package lamport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClock(t *testing.T) {
	assert.Equal(t, uint64(0), NewClock().Time())
}

func TestTick(t *testing.T) {
	c := NewClock()
	assert.Equal(t, uint64(1), c.Tick())

	for i := 0; i < 100; i++ {
		before := c.Time()
		assert.Equal(t, before+1, c.Tick())
	}
}

func TestWitness(t *testing.T) {
	tests := []struct {
		name     string
		current  uint64
		witness  uint64
		expected uint64
	}{
		{name: "witness_smaller_time", current: 5, witness: 3, expected: 6},
		{name: "witness_larger_time", current: 5, witness: 10, expected: 11},
		{name: "witness_equal_time", current: 5, witness: 5, expected: 6},
		{name: "witness_zero", current: 0, witness: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Clock{time: tt.current}
			assert.Equal(t, tt.expected, c.Witness(tt.witness))
			assert.Equal(t, tt.expected, c.Time())
		})
	}
}

// clock value never decreases across any mix of sends and receives
func TestMonotonicity(t *testing.T) {
	c := NewClock()
	var last uint64

	for i := 0; i < 1000; i++ {
		var now uint64
		if i%3 == 0 {
			now = c.Tick()
		} else {
			// alternate stale and fresh remote stamps
			now = c.Witness(uint64((i * 7) % 50))
		}
		assert.Greater(t, now, last, "clock must strictly advance on every event")
		last = now
	}
}

// a send happening before a receive yields a smaller stamp than the receiver's clock
func TestCausalOrder(t *testing.T) {
	a, b := NewClock(), NewClock()

	a.Tick()
	sent := a.Tick()

	received := b.Witness(sent)
	assert.Greater(t, received, sent)

	reply := b.Tick()
	assert.Greater(t, a.Witness(reply), reply)
}
