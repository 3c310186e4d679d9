package membership

import (
	"slices"

	"github.com/pixperk/lamlock/pkg/types"
)

// Set is a process's belief about which peers are alive.
//
// It always contains self. Suspicion is irrevocable: once a peer has been
// suspected it can never be added back for the rest of the run.
//
// Known limitation: a peer suspected because it was only slow stays
// excluded even after it answers again.
type Set struct {
	self      types.PeerID
	members   map[types.PeerID]struct{}
	suspected map[types.PeerID]struct{}
}

func New(self types.PeerID, peers []types.PeerID) *Set {
	s := &Set{
		self:      self,
		members:   make(map[types.PeerID]struct{}, len(peers)+1),
		suspected: make(map[types.PeerID]struct{}),
	}
	s.members[self] = struct{}{}
	for _, p := range peers {
		s.members[p] = struct{}{}
	}
	return s
}

func (s *Set) Self() types.PeerID {
	return s.self
}

// Suspect removes id for the rest of the run.
// It returns false for self and for ids that are not members.
func (s *Set) Suspect(id types.PeerID) bool {
	if id == s.self {
		return false
	}
	if _, ok := s.members[id]; !ok {
		return false
	}
	delete(s.members, id)
	s.suspected[id] = struct{}{}
	return true
}

func (s *Set) Contains(id types.PeerID) bool {
	_, ok := s.members[id]
	return ok
}

func (s *Set) IsSuspected(id types.PeerID) bool {
	_, ok := s.suspected[id]
	return ok
}

// Len is the size of all members, self included.
func (s *Set) Len() int {
	return len(s.members)
}

// All returns every member including self, in id order.
func (s *Set) All() []types.PeerID {
	all := make([]types.PeerID, 0, len(s.members))
	for id := range s.members {
		all = append(all, id)
	}
	slices.Sort(all)
	return all
}

// Others returns every member except self, in id order. It is the
// multicast target set.
func (s *Set) Others() []types.PeerID {
	others := make([]types.PeerID, 0, len(s.members))
	for id := range s.members {
		if id != s.self {
			others = append(others, id)
		}
	}
	slices.Sort(others)
	return others
}

// Suspected returns the ids excluded so far, in id order.
func (s *Set) Suspected() []types.PeerID {
	out := make([]types.PeerID, 0, len(s.suspected))
	for id := range s.suspected {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
