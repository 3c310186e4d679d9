package storage

import (
	"fmt"
	"slices"

	"github.com/pixperk/lamlock/pkg/types"
)

// Overlap is a pair of intervals that occupied the critical section at the
// same time.
type Overlap struct {
	First  types.Interval
	Second types.Interval
}

func (o Overlap) String() string {
	return fmt.Sprintf("%s [%s, %s] overlaps %s [%s, %s]",
		o.First.Peer, o.First.EnteredAt.Format("15:04:05.000"), o.First.LeftAt.Format("15:04:05.000"),
		o.Second.Peer, o.Second.EnteredAt.Format("15:04:05.000"), o.Second.LeftAt.Format("15:04:05.000"))
}

// Verify checks that no two intervals overlap in wall time. Journals from
// several peers can be merged into one slice, as long as they were written
// on the same host.
func Verify(intervals []types.Interval) []Overlap {
	sorted := slices.Clone(intervals)
	slices.SortFunc(sorted, func(a, b types.Interval) int {
		return a.EnteredAt.Compare(b.EnteredAt)
	})

	var overlaps []Overlap
	for i := range sorted {
		for j := i + 1; j < len(sorted) && sorted[j].EnteredAt.Before(sorted[i].LeftAt); j++ {
			if sorted[i].Overlaps(sorted[j]) {
				overlaps = append(overlaps, Overlap{First: sorted[i], Second: sorted[j]})
			}
		}
	}
	return overlaps
}
