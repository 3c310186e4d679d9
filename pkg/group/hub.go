package group

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pixperk/lamlock/pkg/metrics"
	mtime "github.com/pixperk/lamlock/pkg/time"
	"github.com/pixperk/lamlock/pkg/types"
	"go.uber.org/zap"
)

const DefaultMailboxSize = 1024

type Config struct {
	MailboxSize int           // buffered envelopes per member
	Grace       time.Duration // heartbeat lease, 0 disables expiry
}

type member struct {
	id       types.PeerID
	group    string
	bound    bool
	inbox    chan Envelope
	done     chan struct{}
	expireAt time.Duration
}

// Hub is the group substrate: it assigns ids, keeps membership and moves
// envelopes into per-member mailboxes. Delivery is best effort: a full
// mailbox or an unknown target drops the envelope.
//
// Ids are assigned sequentially from 1 across all groups of a hub.
type Hub struct {
	mu sync.Mutex

	log   *zap.Logger
	clock *mtime.Clock
	cfg   Config

	nextID  types.PeerID
	groups  map[string]map[types.PeerID]struct{}
	members map[types.PeerID]*member
	closed  bool
}

func NewHub(logger *zap.Logger, clock *mtime.Clock, cfg Config) *Hub {
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = DefaultMailboxSize
	}
	return &Hub{
		log:     logger,
		clock:   clock,
		cfg:     cfg,
		nextID:  1,
		groups:  make(map[string]map[types.PeerID]struct{}),
		members: make(map[types.PeerID]*member),
	}
}

// Join registers a new member in group, creating the group if needed.
func (h *Hub) Join(group string) (types.PeerID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, types.ErrGroupClosed
	}

	id := h.nextID
	h.nextID++

	m := &member{
		id:       id,
		group:    group,
		inbox:    make(chan Envelope, h.cfg.MailboxSize),
		done:     make(chan struct{}),
		expireAt: h.clock.ExpiresAt(h.cfg.Grace),
	}
	h.members[id] = m

	if _, ok := h.groups[group]; !ok {
		h.groups[group] = make(map[types.PeerID]struct{})
	}
	h.groups[group][id] = struct{}{}
	metrics.HubMembers.WithLabelValues(group).Set(float64(len(h.groups[group])))

	h.log.Info("member joined", zap.String("group", group), zap.Stringer("member", id))
	return id, nil
}

// Bind marks the member ready to receive. Envelopes sent before binding
// are kept in the mailbox.
func (h *Hub) Bind(id types.PeerID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.members[id]
	if !ok {
		return types.ErrNotMember
	}
	m.bound = true
	return nil
}

// Subgroup returns the members of group in id order.
func (h *Hub) Subgroup(group string) ([]types.PeerID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[group]
	if !ok {
		return nil, types.ErrUnknownGroup
	}
	ids := make([]types.PeerID, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Send delivers env to every target mailbox.
func (h *Hub) Send(env Envelope, targets []types.PeerID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return types.ErrGroupClosed
	}
	if _, ok := h.members[env.From]; !ok {
		return types.ErrNotMember
	}

	for _, target := range targets {
		m, ok := h.members[target]
		if !ok {
			metrics.HubDroppedTotal.Inc()
			h.log.Debug("dropping envelope for unknown member", zap.Stringer("target", target))
			continue
		}
		select {
		case m.inbox <- env:
		default:
			metrics.HubDroppedTotal.Inc()
			h.log.Warn("mailbox full, dropping envelope", zap.Stringer("target", target))
		}
	}
	return nil
}

// Mailbox returns the receive side of a bound member: its inbox and a
// channel closed when the member leaves.
func (h *Hub) Mailbox(id types.PeerID) (<-chan Envelope, <-chan struct{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.members[id]
	if !ok {
		return nil, nil, types.ErrNotMember
	}
	if !m.bound {
		return nil, nil, types.ErrNotBound
	}
	return m.inbox, m.done, nil
}

// Heartbeat renews the member's lease.
func (h *Hub) Heartbeat(id types.PeerID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.members[id]
	if !ok {
		return types.ErrNotMember
	}
	m.expireAt = h.clock.ExpiresAt(h.cfg.Grace)
	return nil
}

// Leave deregisters id.
func (h *Hub) Leave(id types.PeerID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.removeLocked(id) {
		return types.ErrNotMember
	}
	h.log.Info("member left", zap.Stringer("member", id))
	return nil
}

// ExpireStale removes every member whose heartbeat lease ran out and
// returns their ids. It is a no-op when expiry is disabled.
func (h *Hub) ExpireStale() []types.PeerID {
	if h.cfg.Grace <= 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Elapsed()
	var expired []types.PeerID
	for id, m := range h.members {
		if now >= m.expireAt {
			expired = append(expired, id)
		}
	}
	slices.Sort(expired)

	for _, id := range expired {
		h.removeLocked(id)
		metrics.HubExpiredTotal.Inc()
		h.log.Warn("member lease expired", zap.Stringer("member", id))
	}
	return expired
}

// RunExpiry calls ExpireStale every interval until ctx is done.
func (h *Hub) RunExpiry(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.clock.After(interval):
			h.ExpireStale()
		}
	}
}

// Close removes every member and rejects further joins and sends.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id := range h.members {
		h.removeLocked(id)
	}
}

// Health reports ErrGroupClosed once the hub is closed.
func (h *Hub) Health() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return types.ErrGroupClosed
	}
	return nil
}

func (h *Hub) removeLocked(id types.PeerID) bool {
	m, ok := h.members[id]
	if !ok {
		return false
	}
	delete(h.members, id)
	close(m.done)

	if g, ok := h.groups[m.group]; ok {
		delete(g, id)
		metrics.HubMembers.WithLabelValues(m.group).Set(float64(len(g)))
	}
	return true
}
