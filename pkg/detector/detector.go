package detector

import (
	"time"

	"github.com/pixperk/lamlock/pkg/membership"
	"github.com/pixperk/lamlock/pkg/queue"
	mtime "github.com/pixperk/lamlock/pkg/time"
	"github.com/pixperk/lamlock/pkg/types"
	"go.uber.org/zap"
)

// Detector suspects peers that stay silent while this process waits to
// enter the critical section.
//
// It only acts while a wait is in progress (between Start and Stop) and
// only after SuspectAfter has elapsed since Start. Every member of the
// group with no queued message behind the head is then declared crashed:
// it is removed from membership for good and its queued entries purged.
type Detector struct {
	log          *zap.Logger
	clock        *mtime.Clock
	suspectAfter time.Duration

	waiting      bool
	waitingSince time.Duration
}

func New(logger *zap.Logger, clock *mtime.Clock, suspectAfter time.Duration) *Detector {
	return &Detector{
		log:          logger,
		clock:        clock,
		suspectAfter: suspectAfter,
	}
}

// Start marks the beginning of a wait for the critical section.
func (d *Detector) Start() {
	d.waiting = true
	d.waitingSince = d.clock.Elapsed()
}

// Stop clears the wait.
func (d *Detector) Stop() {
	d.waiting = false
	d.waitingSince = 0
}

// WaitingSince returns the instant Start was called, if a wait is in progress.
func (d *Detector) WaitingSince() (time.Duration, bool) {
	return d.waitingSince, d.waiting
}

// Elapsed returns how long the current wait has lasted, zero when idle.
func (d *Detector) Elapsed() time.Duration {
	if !d.waiting {
		return 0
	}
	return d.clock.Since(d.waitingSince)
}

// Check runs one suspicion round after a receive timeout and returns the
// peers it excised.
func (d *Detector) Check(q *queue.Queue, members *membership.Set) []types.PeerID {
	if !d.waiting {
		return nil
	}
	head, ok := q.Head()
	if !ok {
		return nil
	}

	self := members.Self()
	if head.Sender != self && !q.HasEnterFrom(self) {
		return nil
	}

	elapsed := d.Elapsed()
	if elapsed < d.suspectAfter {
		return nil
	}

	responded := q.LaterSenders()
	var suspected []types.PeerID
	for _, id := range members.Others() {
		if _, ok := responded[id]; ok {
			continue
		}
		if d.markCrashed(q, members, id, elapsed) {
			suspected = append(suspected, id)
		}
	}
	return suspected
}

func (d *Detector) markCrashed(q *queue.Queue, members *membership.Set, id types.PeerID, elapsed time.Duration) bool {
	if !members.Suspect(id) {
		return false
	}

	d.log.Warn("suspecting peer has crashed",
		zap.Stringer("suspect", id),
		zap.Duration("silent_for", elapsed),
	)

	before := q.Len()
	if purged := q.Purge(id); purged > 0 {
		d.log.Info("purged queued messages of suspected peer",
			zap.Stringer("suspect", id),
			zap.Int("purged", purged),
			zap.Int("queue_before", before),
			zap.Int("queue_after", q.Len()),
		)
	}
	q.Cleanup()
	return true
}
