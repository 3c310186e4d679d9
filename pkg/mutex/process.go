package mutex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pixperk/lamlock/pkg/detector"
	"github.com/pixperk/lamlock/pkg/lamport"
	"github.com/pixperk/lamlock/pkg/membership"
	"github.com/pixperk/lamlock/pkg/metrics"
	"github.com/pixperk/lamlock/pkg/queue"
	mtime "github.com/pixperk/lamlock/pkg/time"
	"github.com/pixperk/lamlock/pkg/types"
	"go.uber.org/zap"
)

// State of the ENTER / ALLOW / RELEASE cycle.
type State uint8

const (
	Idle State = iota
	Requesting
	InCS
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Requesting:
		return "REQUESTING"
	case InCS:
		return "IN_CS"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

type Config struct {
	Group          string         // peer group to join
	Name           string         // human readable peer name, only logged
	Behavior       types.Behavior // ACTIVE or PASSIVE
	ReceiveTimeout time.Duration  // bound of a single receive call
	SuspectAfter   time.Duration  // wait after which silent peers are suspected
}

const (
	// bound for delivering a RELEASE once the caller's context is gone
	disengageTimeout = 5 * time.Second
	// pause of a loop iteration in which the policy neither enters nor serves
	idlePause = 10 * time.Millisecond
)

func DefaultConfig() Config {
	return Config{
		Group:          "proc",
		Behavior:       types.Active,
		ReceiveTimeout: 3 * time.Second,
		SuspectAfter:   6 * time.Second,
	}
}

type Option func(p *Process)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Process) { p.log = logger }
}

func WithClock(clock *mtime.Clock) Option {
	return func(p *Process) { p.mono = clock }
}

func WithPolicy(policy Policy) Option {
	return func(p *Process) { p.policy = policy }
}

func WithCriticalSection(cs CriticalSection) Option {
	return func(p *Process) { p.cs = cs }
}

func WithRecorder(r Recorder) Option {
	return func(p *Process) { p.recorder = r }
}

// Process is one participant of the fully distributed mutex.
//
// All of its state is owned by the goroutine calling Run (or the step
// methods); it must not be shared.
type Process struct {
	ch  Channel
	cfg Config
	log *zap.Logger

	mono     *mtime.Clock
	policy   Policy
	cs       CriticalSection
	recorder Recorder

	id       types.PeerID
	label    string
	clock    *lamport.Clock
	members  *membership.Set
	queue    *queue.Queue
	detector *detector.Detector
	state    State

	fault atomic.Pointer[error]
}

func New(ch Channel, cfg Config, opts ...Option) *Process {
	p := &Process{
		ch:    ch,
		cfg:   cfg,
		log:   zap.NewNop(),
		clock: lamport.NewClock(),
		queue: queue.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.mono == nil {
		p.mono = mtime.NewClock()
	}
	if p.policy == nil {
		p.policy = NewRandomPolicy(time.Now().UnixNano(), 2*time.Second)
	}
	if p.cs == nil {
		p.cs = p.sleep
	}
	return p
}

// Join registers the process in its group. It must be called before Init,
// and every peer should have joined before any of them calls Init so that
// the membership snapshots agree.
func (p *Process) Join(ctx context.Context) error {
	id, err := p.ch.Join(ctx, p.cfg.Group)
	if err != nil {
		return fmt.Errorf("join group %q: %w", p.cfg.Group, err)
	}
	p.id = id
	p.label = strconv.FormatUint(uint64(id), 10)
	p.log = p.log.With(zap.Stringer("peer", id))
	return nil
}

// Init binds the process to its id and takes the membership snapshot.
func (p *Process) Init(ctx context.Context) error {
	if err := p.ch.Bind(ctx, p.id); err != nil {
		return fmt.Errorf("bind %s: %w", p.id, err)
	}

	peers, err := p.ch.Subgroup(ctx, p.cfg.Group)
	if err != nil {
		return fmt.Errorf("subgroup %q: %w", p.cfg.Group, err)
	}

	p.members = membership.New(p.id, peers)
	p.detector = detector.New(p.log, p.mono, p.cfg.SuspectAfter)
	metrics.Members.WithLabelValues(p.label).Set(float64(p.members.Len()))

	p.log.Info("joined group",
		zap.String("name", p.cfg.Name),
		zap.String("group", p.cfg.Group),
		zap.String("behavior", string(p.cfg.Behavior)),
		zap.Stringers("members", p.members.All()),
	)
	return nil
}

// Leave deregisters the process from its group.
func (p *Process) Leave(ctx context.Context) error {
	if err := p.ch.Leave(ctx, p.id); err != nil {
		return fmt.Errorf("leave: %w", err)
	}
	p.log.Info("left group")
	return nil
}

// Run drives the process until ctx is cancelled or an unrecoverable error
// occurs. ErrInconsistentRelease is returned as is: the caller must stop
// participating.
func (p *Process) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		var err error
		switch {
		case p.members.Len() > 1 && p.cfg.Behavior == types.Active && p.policy.WantsToEnter():
			err = p.cycle(ctx)
		case p.policy.WantsToServe():
			err = p.Receive(ctx)
		default:
			p.idle(ctx)
		}

		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			p.fault.Store(&err)
			return err
		}
	}
}

// Health returns the error that stopped Run, nil while the process is
// healthy. Safe to call from any goroutine.
func (p *Process) Health() error {
	if err := p.fault.Load(); err != nil {
		return *err
	}
	return nil
}

func (p *Process) idle(ctx context.Context) {
	pause := min(idlePause, p.cfg.ReceiveTimeout)
	select {
	case <-ctx.Done():
	case <-p.mono.After(pause):
	}
}

// Acquire requests the critical section and blocks until this process is
// allowed to enter it.
func (p *Process) Acquire(ctx context.Context) error {
	if err := p.RequestToEnter(ctx); err != nil {
		return err
	}
	for !p.AllowedToEnter() {
		if err := p.Receive(ctx); err != nil {
			p.withdraw(ctx)
			return err
		}
	}
	p.state = InCS
	return nil
}

// one ENTER -> wait -> CS -> RELEASE round
func (p *Process) cycle(ctx context.Context) error {
	p.log.Debug("wants to enter critical section", zap.Uint64("clock", p.clock.Time()))

	if err := p.Acquire(ctx); err != nil {
		return err
	}
	metrics.CSWaitDuration.WithLabelValues(p.label).Observe(p.detector.Elapsed().Seconds())
	metrics.CSEntriesTotal.WithLabelValues(p.label).Inc()

	interval := types.Interval{
		Peer:       p.id,
		Name:       p.cfg.Name,
		EnterClock: p.clock.Time(),
		EnteredAt:  p.mono.Now(),
	}

	hold := p.policy.HoldDuration()
	p.log.Info("entering critical section", zap.Duration("hold", hold))
	csErr := p.cs(ctx, hold)

	interval.LeftAt = p.mono.Now()
	p.log.Info("leaving critical section")

	if err := p.Release(ctx); err != nil {
		return err
	}
	interval.LeaveClock = p.clock.Time()

	if p.recorder != nil {
		// a journal failure must not hold up the group
		if err := p.recorder.Record(ctx, interval); err != nil {
			p.log.Warn("failed to record critical section", zap.Error(err))
		}
	}

	if csErr != nil {
		if ctx.Err() != nil {
			return csErr
		}
		p.log.Warn("critical section work failed", zap.Error(csErr))
	}
	return nil
}

func (p *Process) sleep(ctx context.Context, hold time.Duration) error {
	select {
	case <-p.mono.After(hold):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Process) ID() types.PeerID {
	return p.id
}

func (p *Process) State() State {
	return p.state
}

// Clock returns the current logical clock value.
func (p *Process) Clock() uint64 {
	return p.clock.Time()
}

// Queue returns a copy of the request queue.
func (p *Process) Queue() []types.Message {
	return p.queue.Entries()
}

func (p *Process) Members() []types.PeerID {
	return p.members.All()
}

func (p *Process) Others() []types.PeerID {
	return p.members.Others()
}

// WaitingSince returns the monotonic instant the pending ENTER was issued.
func (p *Process) WaitingSince() (time.Duration, bool) {
	return p.detector.WaitingSince()
}
