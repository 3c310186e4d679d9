package types

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageOrder(t *testing.T) {
	msgs := []Message{
		{Timestamp: 3, Sender: 1, Kind: KindAllow},
		{Timestamp: 1, Sender: 2, Kind: KindEnter},
		{Timestamp: 1, Sender: 1, Kind: KindEnter},
	}
	slices.SortFunc(msgs, Message.Compare)

	assert.Equal(t, []Message{
		{Timestamp: 1, Sender: 1, Kind: KindEnter},
		{Timestamp: 1, Sender: 2, Kind: KindEnter},
		{Timestamp: 3, Sender: 1, Kind: KindAllow},
	}, msgs)

	// kind does not take part in the order
	a := Message{Timestamp: 4, Sender: 2, Kind: KindEnter}
	b := Message{Timestamp: 4, Sender: 2, Kind: KindRelease}
	assert.Equal(t, 0, a.Compare(b))
	assert.False(t, a.Less(b))
}

func TestMessageString(t *testing.T) {
	assert.Equal(t, "(5, Proc-2, RELEASE)", Message{Timestamp: 5, Sender: 2, Kind: KindRelease}.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
	assert.False(t, Kind(0).Valid())
}

func TestParseBehavior(t *testing.T) {
	b, err := ParseBehavior(" passive ")
	require.NoError(t, err)
	assert.Equal(t, Passive, b)

	_, err = ParseBehavior("idle")
	assert.Error(t, err)
}

func TestIntervalOverlaps(t *testing.T) {
	base := time.Now()
	a := Interval{EnteredAt: base, LeftAt: base.Add(10 * time.Millisecond)}
	b := Interval{EnteredAt: base.Add(10 * time.Millisecond), LeftAt: base.Add(20 * time.Millisecond)}
	c := Interval{EnteredAt: base.Add(5 * time.Millisecond), LeftAt: base.Add(6 * time.Millisecond)}

	assert.False(t, a.Overlaps(b), "touching intervals do not overlap")
	assert.True(t, a.Overlaps(c))
	assert.Equal(t, 10*time.Millisecond, a.Duration())
}
