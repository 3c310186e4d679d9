package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixperk/lamlock/pkg/storage"
	"github.com/pixperk/lamlock/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeJournal(t *testing.T, path string, intervals ...types.Interval) {
	t.Helper()
	journal, err := storage.NewJournal(path)
	require.NoError(t, err)
	for _, interval := range intervals {
		require.NoError(t, journal.Record(context.Background(), interval))
	}
	require.NoError(t, journal.Close())
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	base := time.Now()
	first := filepath.Join(dir, "a.db")
	second := filepath.Join(dir, "b.db")

	writeJournal(t, first, types.Interval{Peer: 1, EnteredAt: base, LeftAt: base.Add(10 * time.Millisecond)})
	writeJournal(t, second, types.Interval{Peer: 2, EnteredAt: base.Add(20 * time.Millisecond), LeftAt: base.Add(30 * time.Millisecond)})

	out, err := execute(t, "verify", first, second)
	require.NoError(t, err)
	assert.Contains(t, out, "ok: 2 critical sections")

	third := filepath.Join(dir, "c.db")
	writeJournal(t, third, types.Interval{Peer: 3, EnteredAt: base.Add(5 * time.Millisecond), LeftAt: base.Add(25 * time.Millisecond)})

	out, err = execute(t, "verify", first, second, third)
	require.Error(t, err)
	assert.Contains(t, out, "overlaps")
}

func TestDemoCommand(t *testing.T) {
	_, err := execute(t, "demo",
		"--active=2", "--passive=1",
		"--duration=400ms",
		"--receive-timeout=20ms", "--suspect-after=5s",
		"--max-hold=5ms",
		"--log-level=error",
	)
	require.NoError(t, err)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	_, err := execute(t, "demo", "--receive-timeout=2s", "--suspect-after=1s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suspect_after")
}
