package membership

import (
	"testing"

	"github.com/pixperk/lamlock/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestNewIncludesSelf(t *testing.T) {
	s := New(2, []types.PeerID{3, 1})

	assert.Equal(t, []types.PeerID{1, 2, 3}, s.All())
	assert.Equal(t, []types.PeerID{1, 3}, s.Others())
	assert.Equal(t, 3, s.Len())

	// self listed in the snapshot is not duplicated
	s = New(2, []types.PeerID{1, 2, 3})
	assert.Equal(t, 3, s.Len())
}

func TestSuspectIsIrrevocable(t *testing.T) {
	s := New(1, []types.PeerID{2, 3})

	assert.True(t, s.Suspect(3))
	assert.False(t, s.Contains(3))
	assert.True(t, s.IsSuspected(3))
	assert.Equal(t, []types.PeerID{2}, s.Others())

	assert.False(t, s.Contains(3))
	assert.False(t, s.Suspect(3), "second suspicion is a no-op")
	assert.Equal(t, []types.PeerID{3}, s.Suspected())
}

func TestSuspectIgnoresSelfAndStrangers(t *testing.T) {
	s := New(1, []types.PeerID{2})

	assert.False(t, s.Suspect(1))
	assert.False(t, s.Suspect(42))
	assert.True(t, s.Contains(1))
	assert.Empty(t, s.Suspected())
}
