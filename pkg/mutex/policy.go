package mutex

import (
	"math/rand"
	"time"
)

// Policy decides when an ACTIVE process contends for the critical section,
// when an idle process services its channel and how long it holds the
// critical section.
//
// It is only called from the owning process loop.
type Policy interface {
	WantsToEnter() bool
	WantsToServe() bool
	HoldDuration() time.Duration
}

// RandomPolicy flips a coin for both decisions and holds the critical
// section for a uniformly random duration up to MaxHold.
type RandomPolicy struct {
	rnd     *rand.Rand
	MaxHold time.Duration
}

func NewRandomPolicy(seed int64, maxHold time.Duration) *RandomPolicy {
	return &RandomPolicy{
		rnd:     rand.New(rand.NewSource(seed)),
		MaxHold: maxHold,
	}
}

func (p *RandomPolicy) WantsToEnter() bool {
	return p.rnd.Intn(2) == 0
}

func (p *RandomPolicy) WantsToServe() bool {
	return p.rnd.Intn(2) == 0
}

func (p *RandomPolicy) HoldDuration() time.Duration {
	if p.MaxHold <= 0 {
		return 0
	}
	return time.Duration(p.rnd.Int63n(int64(p.MaxHold) + 1))
}

// LimitedPolicy contends a fixed number of times, then only services the
// channel. Rounds < 0 means no limit.
type LimitedPolicy struct {
	Rounds int
	Hold   time.Duration

	entered int
}

func (p *LimitedPolicy) WantsToEnter() bool {
	if p.Rounds >= 0 && p.entered >= p.Rounds {
		return false
	}
	p.entered++
	return true
}

func (p *LimitedPolicy) WantsToServe() bool {
	return true
}

func (p *LimitedPolicy) HoldDuration() time.Duration {
	return p.Hold
}
