package group

import (
	"context"
	"time"

	mtime "github.com/pixperk/lamlock/pkg/time"
	"github.com/pixperk/lamlock/pkg/types"
)

// Await is the timed receive shared by the transports. It returns the first
// envelope from one of sources, discarding redeliveries and envelopes from
// anyone else. ok is false when timeout expires first.
func Await(
	ctx context.Context,
	clock *mtime.Clock,
	inbox <-chan Envelope,
	done <-chan struct{},
	dedup *Dedup,
	sources []types.PeerID,
	timeout time.Duration,
) (env Envelope, ok bool, err error) {
	allowed := make(map[types.PeerID]struct{}, len(sources))
	for _, id := range sources {
		allowed[id] = struct{}{}
	}

	expired := clock.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return Envelope{}, false, ctx.Err()
		case <-done:
			return Envelope{}, false, types.ErrGroupClosed
		case <-expired:
			return Envelope{}, false, nil
		case e, open := <-inbox:
			if !open {
				return Envelope{}, false, types.ErrGroupClosed
			}
			if dedup != nil && dedup.Seen(e.ID) {
				continue
			}
			if _, ok := allowed[e.From]; !ok {
				continue
			}
			return e, true, nil
		}
	}
}
