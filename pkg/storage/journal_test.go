package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixperk/lamlock/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(ms int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(ms) * time.Millisecond)
}

func TestJournalRecordAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peer", "journal.db")

	journal, err := NewJournal(path)
	require.NoError(t, err)

	first := types.Interval{Peer: 1, Name: "a", EnterClock: 3, LeaveClock: 4, EnteredAt: at(0), LeftAt: at(10)}
	second := types.Interval{Peer: 1, Name: "a", EnterClock: 9, LeaveClock: 10, EnteredAt: at(20), LeftAt: at(30)}
	require.NoError(t, journal.Record(context.Background(), first))
	require.NoError(t, journal.Record(context.Background(), second))

	got, err := journal.Intervals()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].EnterClock)
	assert.True(t, second.EnteredAt.Equal(got[1].EnteredAt))

	require.NoError(t, journal.Close())

	loaded, err := LoadIntervals(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestLoadMissingJournal(t *testing.T) {
	_, err := LoadIntervals(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name      string
		intervals []types.Interval
		overlaps  int
	}{
		{
			name: "disjoint",
			intervals: []types.Interval{
				{Peer: 2, EnteredAt: at(20), LeftAt: at(30)},
				{Peer: 1, EnteredAt: at(0), LeftAt: at(10)},
				{Peer: 3, EnteredAt: at(10), LeftAt: at(15)},
			},
		},
		{
			name: "overlapping",
			intervals: []types.Interval{
				{Peer: 1, EnteredAt: at(0), LeftAt: at(10)},
				{Peer: 2, EnteredAt: at(5), LeftAt: at(12)},
			},
			overlaps: 1,
		},
		{
			name: "one long interval covers two",
			intervals: []types.Interval{
				{Peer: 1, EnteredAt: at(0), LeftAt: at(100)},
				{Peer: 2, EnteredAt: at(10), LeftAt: at(20)},
				{Peer: 3, EnteredAt: at(30), LeftAt: at(40)},
			},
			overlaps: 2,
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Verify(tt.intervals), tt.overlaps)
		})
	}
}
