package mutex

import (
	"context"
	"fmt"

	"github.com/pixperk/lamlock/pkg/metrics"
	"github.com/pixperk/lamlock/pkg/types"
	"go.uber.org/zap"
)

// RequestToEnter queues this process's ENTER and multicasts it to every
// other member. Only ACTIVE processes may request.
func (p *Process) RequestToEnter(ctx context.Context) error {
	if p.cfg.Behavior != types.Active {
		return types.ErrPassive
	}
	if p.state != Idle {
		return types.ErrAlreadyRequesting
	}

	msg := types.Message{Timestamp: p.clock.Tick(), Sender: p.id, Kind: types.KindEnter}
	p.queue.Enqueue(msg)
	p.queue.Cleanup()
	p.send(ctx, p.members.Others(), msg)

	p.detector.Start()
	p.state = Requesting
	p.observeQueue()
	return nil
}

// AllowedToEnter reports whether this process may enter the critical
// section: its own ENTER heads the queue and every other member has a
// message queued behind it.
func (p *Process) AllowedToEnter() bool {
	head, ok := p.queue.Head()
	if !ok || head.Sender != p.id || head.Kind != types.KindEnter {
		return false
	}

	later := p.queue.LaterSenders()
	answered := 0
	others := p.members.Others()
	for _, id := range others {
		if _, ok := later[id]; ok {
			answered++
		}
	}
	return answered == len(others)
}

// Receive performs one bounded receive and handles its outcome: a message
// is dispatched by kind, a timeout runs the failure detector.
func (p *Process) Receive(ctx context.Context) error {
	d, ok, err := p.ch.ReceiveFrom(ctx, p.members.Others(), p.cfg.ReceiveTimeout)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	if !ok {
		p.onTimeout()
		return nil
	}

	// suspected peers stay excluded even if they turn out to be alive
	if d.From == p.id || !p.members.Contains(d.From) {
		p.log.Debug("dropping message from non-member",
			zap.Stringer("from", d.From),
			zap.Stringer("message", d.Message),
		)
		return nil
	}

	msg := d.Message
	p.clock.Witness(msg.Timestamp)
	metrics.MessagesTotal.WithLabelValues(p.label, msg.Kind.String(), "received").Inc()
	p.log.Debug("received message",
		zap.Stringer("kind", msg.Kind),
		zap.Stringer("from", msg.Sender),
		zap.Uint64("timestamp", msg.Timestamp),
	)

	switch msg.Kind {
	case types.KindEnter:
		if !p.queue.Enqueue(msg) {
			p.log.Info("ignoring duplicate ENTER", zap.Stringer("message", msg))
			break
		}
		// a process handling another's ENTER is not entering itself at this instant, grant right away
		p.allow(ctx, msg.Sender)

	case types.KindAllow:
		if !p.queue.Enqueue(msg) {
			p.log.Info("ignoring duplicate ALLOW", zap.Stringer("message", msg))
		}

	case types.KindRelease:
		if !p.queue.RemoveEnter(msg.Sender) {
			p.log.Info("received RELEASE without matching ENTER (ignored)", zap.Stringer("from", msg.Sender))
		}

	default:
		p.log.Warn("ignoring message", zap.Stringer("message", msg), zap.Error(types.ErrUnknownKind))
	}

	p.queue.Cleanup()
	p.observeQueue()
	return nil
}

// Release leaves the critical section. The head of the queue must still be
// this process's ENTER; otherwise local state is inconsistent and
// ErrInconsistentRelease is returned, after which the process must stop
// participating.
func (p *Process) Release(ctx context.Context) error {
	head, ok := p.queue.Head()
	if !ok || head.Sender != p.id || head.Kind != types.KindEnter {
		p.log.Error("inconsistent local RELEASE", zap.Stringer("queue", p.queue))
		return fmt.Errorf("%w: queue head is %v", types.ErrInconsistentRelease, head)
	}

	p.queue.KeepEntersAfterHead()
	p.disengage(ctx)
	return nil
}

// withdraw takes back a pending ENTER. Peers drop it on the RELEASE just
// like after a completed critical section.
func (p *Process) withdraw(ctx context.Context) {
	if p.state != Requesting {
		return
	}
	p.queue.RemoveEnter(p.id)
	p.queue.Cleanup()
	p.log.Info("withdrawing request to enter", zap.Error(ctx.Err()))
	p.disengage(ctx)
}

// disengage multicasts RELEASE and returns to IDLE. The RELEASE goes out
// even when ctx is already cancelled: peers would keep the ENTER at their
// queue head otherwise.
func (p *Process) disengage(ctx context.Context) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disengageTimeout)
	defer cancel()

	msg := types.Message{Timestamp: p.clock.Tick(), Sender: p.id, Kind: types.KindRelease}
	p.send(sendCtx, p.members.Others(), msg)

	p.detector.Stop()
	p.state = Idle
	p.observeQueue()
}

func (p *Process) allow(ctx context.Context, requester types.PeerID) {
	msg := types.Message{Timestamp: p.clock.Tick(), Sender: p.id, Kind: types.KindAllow}
	p.send(ctx, []types.PeerID{requester}, msg)
}

// sends are best effort and never retried
func (p *Process) send(ctx context.Context, targets []types.PeerID, msg types.Message) {
	if len(targets) == 0 {
		return
	}
	if err := p.ch.SendTo(ctx, targets, msg); err != nil {
		p.log.Warn("send failed",
			zap.Stringer("message", msg),
			zap.Stringers("targets", targets),
			zap.Error(err),
		)
		return
	}
	metrics.MessagesTotal.WithLabelValues(p.label, msg.Kind.String(), "sent").Add(float64(len(targets)))
}

func (p *Process) onTimeout() {
	metrics.ReceiveTimeoutsTotal.WithLabelValues(p.label).Inc()
	p.log.Info("timed out on receive", zap.Stringer("queue", p.queue))

	suspected := p.detector.Check(p.queue, p.members)
	if len(suspected) == 0 {
		return
	}
	metrics.SuspicionsTotal.WithLabelValues(p.label).Add(float64(len(suspected)))
	metrics.Members.WithLabelValues(p.label).Set(float64(p.members.Len()))
	p.observeQueue()
}

func (p *Process) observeQueue() {
	metrics.QueueLength.WithLabelValues(p.label).Set(float64(p.queue.Len()))
}
