package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	pb "github.com/pixperk/lamlock/api/v1"
	"github.com/pixperk/lamlock/pkg/codec"
	"github.com/pixperk/lamlock/pkg/group"
	"github.com/pixperk/lamlock/pkg/mutex"
	"github.com/pixperk/lamlock/pkg/server"
	mtime "github.com/pixperk/lamlock/pkg/time"
	"github.com/pixperk/lamlock/pkg/types"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Config struct {
	HeartbeatInterval time.Duration // 0 disables the heartbeat loop
	JoinTimeout       time.Duration // how long Join retries an unreachable hub, 0 retries until ctx is done
	MailboxSize       int
}

func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: time.Second,
		JoinTimeout:       30 * time.Second,
		MailboxSize:       group.DefaultMailboxSize,
	}
}

type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.log = logger }
}

func WithClock(clock *mtime.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithDialOptions replaces the default insecure transport credentials.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) { c.dialOpts = opts }
}

// Client is a mutex.Channel talking to a remote hub. One Client serves
// one Process.
type Client struct {
	addr     string
	cfg      Config
	log      *zap.Logger
	clock    *mtime.Clock
	dialOpts []grpc.DialOption

	conn   *grpc.ClientConn
	client pb.GroupClient
	dedup  *group.Dedup

	mu     sync.Mutex
	self   types.PeerID
	inbox  chan group.Envelope
	done   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ mutex.Channel = (*Client)(nil)

func NewClient(addr string, cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		addr:     addr,
		cfg:      cfg,
		log:      zap.NewNop(),
		dialOpts: []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())},
		dedup:    group.NewDedup(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = mtime.NewClock()
	}
	if c.cfg.MailboxSize <= 0 {
		c.cfg.MailboxSize = group.DefaultMailboxSize
	}

	conn, err := grpc.NewClient(addr, c.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn
	c.client = pb.NewGroupClient(conn)
	return c, nil
}

// Join registers in the group, retrying with exponential backoff while the
// hub is unavailable.
func (c *Client) Join(ctx context.Context, name string) (types.PeerID, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = c.cfg.JoinTimeout
	b.Reset()

	var id types.PeerID
	op := func() error {
		resp, err := c.client.Join(ctx, wrapperspb.String(name))
		if err != nil {
			if status.Code(err) == codes.Unavailable {
				return err
			}
			return backoff.Permanent(server.FromGRPCError(err))
		}
		id = types.PeerID(resp.GetValue())
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn("hub unavailable, retrying join", zap.String("hub", c.addr), zap.Duration("wait", wait), zap.Error(err))
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return 0, fmt.Errorf("join %q: %w", name, err)
	}

	c.mu.Lock()
	c.self = id
	c.mu.Unlock()
	c.log = c.log.With(zap.Uint64("peer", uint64(id)))
	return id, nil
}

// Bind activates the member on the hub, then starts the subscribe stream
// feeding the local inbox and the heartbeat loop.
func (c *Client) Bind(ctx context.Context, id types.PeerID) error {
	if _, err := c.client.Bind(ctx, wrapperspb.UInt64(uint64(id))); err != nil {
		return fmt.Errorf("bind: %w", server.FromGRPCError(err))
	}

	// streams outlive the Bind call, Leave or Close stops them
	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := c.client.Subscribe(streamCtx, wrapperspb.UInt64(uint64(id)))
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe: %w", server.FromGRPCError(err))
	}

	c.mu.Lock()
	c.inbox = make(chan group.Envelope, c.cfg.MailboxSize)
	c.done = make(chan struct{})
	c.cancel = cancel
	inbox, done := c.inbox, c.done
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.subscribeLoop(stream, inbox, done)
	}()

	if c.cfg.HeartbeatInterval > 0 {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.heartbeatLoop(streamCtx, id)
		}()
	}
	return nil
}

func (c *Client) subscribeLoop(stream pb.Group_SubscribeClient, inbox chan<- group.Envelope, done chan struct{}) {
	defer close(done)

	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			c.log.Info("hub closed the subscription")
			return
		}
		if err != nil {
			if status.Code(err) != codes.Canceled {
				c.log.Warn("subscription failed", zap.Error(err))
			}
			return
		}

		env, _, err := codec.UnmarshalEnvelope(msg.GetValue())
		if err != nil {
			c.log.Warn("dropping malformed envelope", zap.Error(err))
			continue
		}

		select {
		case inbox <- env:
		default:
			c.log.Warn("local inbox full, dropping envelope", zap.Stringer("from", env.From))
		}
	}
}

func (c *Client) heartbeatLoop(ctx context.Context, id types.PeerID) {
	var failureCount int

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.cfg.HeartbeatInterval):
		}

		if _, err := c.client.Heartbeat(ctx, wrapperspb.UInt64(uint64(id))); err != nil {
			if ctx.Err() != nil {
				return
			}
			failureCount++
			c.log.Warn("heartbeat failed", zap.Int("attempt", failureCount), zap.Error(err))
			if failureCount >= 2 {
				c.log.Error("membership lease may expire soon, heartbeat failing")
			}
			continue
		}

		if failureCount > 0 {
			c.log.Info("heartbeat recovered", zap.Int("failures", failureCount))
			failureCount = 0
		}
	}
}

func (c *Client) Subgroup(ctx context.Context, name string) ([]types.PeerID, error) {
	resp, err := c.client.Subgroup(ctx, wrapperspb.String(name))
	if err != nil {
		return nil, fmt.Errorf("subgroup: %w", server.FromGRPCError(err))
	}
	return codec.UnmarshalIDs(resp.GetValue())
}

func (c *Client) SendTo(ctx context.Context, targets []types.PeerID, msg types.Message) error {
	c.mu.Lock()
	self := c.self
	c.mu.Unlock()

	env := group.NewEnvelope(self, msg)
	if _, err := c.client.Send(ctx, wrapperspb.Bytes(codec.MarshalEnvelope(env, targets))); err != nil {
		return fmt.Errorf("send: %w", server.FromGRPCError(err))
	}
	return nil
}

func (c *Client) ReceiveFrom(ctx context.Context, sources []types.PeerID, timeout time.Duration) (mutex.Delivery, bool, error) {
	c.mu.Lock()
	inbox, done := c.inbox, c.done
	c.mu.Unlock()

	if inbox == nil {
		return mutex.Delivery{}, false, types.ErrNotBound
	}
	env, ok, err := group.Await(ctx, c.clock, inbox, done, c.dedup, sources, timeout)
	if err != nil || !ok {
		return mutex.Delivery{}, false, err
	}
	return mutex.Delivery{From: env.From, Message: env.Message}, true, nil
}

// Leave deregisters id and stops the background streams.
func (c *Client) Leave(ctx context.Context, id types.PeerID) error {
	_, err := c.client.Leave(ctx, wrapperspb.UInt64(uint64(id)))
	c.stop()
	if err != nil {
		return fmt.Errorf("leave: %w", server.FromGRPCError(err))
	}
	return nil
}

func (c *Client) stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// Close stops the background streams and closes the connection.
func (c *Client) Close() error {
	c.stop()
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}
