package transport

import (
	"context"
	"time"

	"github.com/pixperk/lamlock/pkg/group"
	"github.com/pixperk/lamlock/pkg/mutex"
	mtime "github.com/pixperk/lamlock/pkg/time"
	"github.com/pixperk/lamlock/pkg/types"
)

// Memory is an in-process mutex.Channel backed by a shared group.Hub.
// Each process needs its own Memory; the hub is shared.
type Memory struct {
	hub   *group.Hub
	clock *mtime.Clock
	dedup *group.Dedup

	self  types.PeerID
	inbox <-chan group.Envelope
	done  <-chan struct{}
}

var _ mutex.Channel = (*Memory)(nil)

func NewMemory(hub *group.Hub, clock *mtime.Clock) *Memory {
	return &Memory{
		hub:   hub,
		clock: clock,
		dedup: group.NewDedup(0),
	}
}

func (m *Memory) Join(_ context.Context, name string) (types.PeerID, error) {
	id, err := m.hub.Join(name)
	if err != nil {
		return 0, err
	}
	m.self = id
	return id, nil
}

func (m *Memory) Bind(_ context.Context, id types.PeerID) error {
	if err := m.hub.Bind(id); err != nil {
		return err
	}
	inbox, done, err := m.hub.Mailbox(id)
	if err != nil {
		return err
	}
	m.inbox, m.done = inbox, done
	return nil
}

func (m *Memory) Subgroup(_ context.Context, name string) ([]types.PeerID, error) {
	return m.hub.Subgroup(name)
}

func (m *Memory) SendTo(_ context.Context, targets []types.PeerID, msg types.Message) error {
	return m.hub.Send(group.NewEnvelope(m.self, msg), targets)
}

func (m *Memory) ReceiveFrom(ctx context.Context, sources []types.PeerID, timeout time.Duration) (mutex.Delivery, bool, error) {
	if m.inbox == nil {
		return mutex.Delivery{}, false, types.ErrNotBound
	}
	env, ok, err := group.Await(ctx, m.clock, m.inbox, m.done, m.dedup, sources, timeout)
	if err != nil || !ok {
		return mutex.Delivery{}, false, err
	}
	return mutex.Delivery{From: env.From, Message: env.Message}, true, nil
}

func (m *Memory) Leave(_ context.Context, id types.PeerID) error {
	return m.hub.Leave(id)
}
