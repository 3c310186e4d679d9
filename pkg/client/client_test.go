package client_test

import (
	"context"
	"net"
	"testing"
	"time"

	pb "github.com/pixperk/lamlock/api/v1"
	"github.com/pixperk/lamlock/pkg/client"
	"github.com/pixperk/lamlock/pkg/group"
	"github.com/pixperk/lamlock/pkg/mutex"
	"github.com/pixperk/lamlock/pkg/server"
	mtime "github.com/pixperk/lamlock/pkg/time"
	"github.com/pixperk/lamlock/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

func startHub(t *testing.T) (*group.Hub, func() *client.Client) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	clock := mtime.NewClock()

	hub := group.NewHub(logger, clock, group.Config{})
	lis := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer()
	pb.RegisterGroupServer(grpcServer, server.NewServer(hub, logger))

	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(func() {
		hub.Close()
		grpcServer.Stop()
	})

	newClient := func() *client.Client {
		cfg := client.DefaultConfig()
		cfg.HeartbeatInterval = 50 * time.Millisecond
		cfg.JoinTimeout = time.Second

		c, err := client.NewClient("passthrough:///bufnet", cfg,
			client.WithLogger(logger),
			client.WithClock(clock),
			client.WithDialOptions(
				grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
					return lis.DialContext(ctx)
				}),
				grpc.WithTransportCredentials(insecure.NewCredentials()),
			),
		)
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
	return hub, newClient
}

func TestSendAndReceive(t *testing.T) {
	ctx := context.Background()
	_, newClient := startHub(t)
	a, b := newClient(), newClient()

	idA, err := a.Join(ctx, "proc")
	require.NoError(t, err)
	idB, err := b.Join(ctx, "proc")
	require.NoError(t, err)
	assert.Equal(t, types.PeerID(1), idA)
	assert.Equal(t, types.PeerID(2), idB)

	require.NoError(t, a.Bind(ctx, idA))
	require.NoError(t, b.Bind(ctx, idB))

	members, err := a.Subgroup(ctx, "proc")
	require.NoError(t, err)
	assert.Equal(t, []types.PeerID{1, 2}, members)

	msg := types.Message{Timestamp: 1, Sender: idA, Kind: types.KindEnter}
	require.NoError(t, a.SendTo(ctx, []types.PeerID{idB}, msg))

	d, ok, err := b.ReceiveFrom(ctx, []types.PeerID{idA}, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, idA, d.From)
	assert.Equal(t, msg, d.Message)

	_, ok, err = b.ReceiveFrom(ctx, []types.PeerID{idA}, 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "nothing else was sent")
}

func TestErrorsKeepTheirSentinel(t *testing.T) {
	ctx := context.Background()
	_, newClient := startHub(t)
	c := newClient()

	_, err := c.Subgroup(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrUnknownGroup)

	err = c.Bind(ctx, 42)
	assert.ErrorIs(t, err, types.ErrNotMember)

	_, _, err = c.ReceiveFrom(ctx, nil, time.Millisecond)
	assert.ErrorIs(t, err, types.ErrNotBound)
}

func TestLeaveEndsReceive(t *testing.T) {
	ctx := context.Background()
	hub, newClient := startHub(t)
	c := newClient()

	id, err := c.Join(ctx, "proc")
	require.NoError(t, err)
	require.NoError(t, c.Bind(ctx, id))
	require.NoError(t, c.Leave(ctx, id))

	_, _, err = c.ReceiveFrom(ctx, nil, time.Second)
	assert.ErrorIs(t, err, types.ErrGroupClosed)

	members, err := hub.Subgroup("proc")
	require.NoError(t, err)
	assert.Empty(t, members)
}

// TestMutexOverGRPC runs two active processes through the hub
func TestMutexOverGRPC(t *testing.T) {
	ctx := context.Background()
	_, newClient := startHub(t)
	logger := zaptest.NewLogger(t)

	cfg := mutex.Config{
		Group:          "proc",
		Behavior:       types.Active,
		ReceiveTimeout: 2 * time.Second,
		SuspectAfter:   5 * time.Second,
	}
	a := mutex.New(newClient(), cfg, mutex.WithLogger(logger))
	b := mutex.New(newClient(), cfg, mutex.WithLogger(logger))
	require.NoError(t, a.Join(ctx))
	require.NoError(t, b.Join(ctx))
	require.NoError(t, a.Init(ctx))
	require.NoError(t, b.Init(ctx))

	require.NoError(t, a.RequestToEnter(ctx))
	require.NoError(t, b.Receive(ctx))
	require.NoError(t, a.Receive(ctx))
	require.True(t, a.AllowedToEnter())

	require.NoError(t, a.Release(ctx))
	require.NoError(t, b.Receive(ctx))
	assert.Empty(t, b.Queue())
}

func newProcess(t *testing.T, ch mutex.Channel, b types.Behavior, opts ...mutex.Option) *mutex.Process {
	t.Helper()
	cfg := mutex.Config{
		Group:          "proc",
		Behavior:       b,
		ReceiveTimeout: 50 * time.Millisecond,
		SuspectAfter:   5 * time.Second,
	}
	return mutex.New(ch, cfg, append([]mutex.Option{mutex.WithLogger(zaptest.NewLogger(t))}, opts...)...)
}

// TestShutdownInCriticalSectionReleases stops a peer while it holds the
// critical section; its RELEASE must still reach the group
func TestShutdownInCriticalSectionReleases(t *testing.T) {
	ctx := context.Background()
	_, newClient := startHub(t)

	entered := make(chan struct{})
	hold := func(ctx context.Context, _ time.Duration) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	}
	a := newProcess(t, newClient(), types.Active,
		mutex.WithPolicy(&mutex.LimitedPolicy{Rounds: 1}),
		mutex.WithCriticalSection(hold),
	)
	b := newProcess(t, newClient(), types.Passive)
	require.NoError(t, a.Join(ctx))
	require.NoError(t, b.Join(ctx))
	require.NoError(t, a.Init(ctx))
	require.NoError(t, b.Init(ctx))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	done := make(chan error, 1)
	go func() { done <- a.Run(runCtx) }()

	// b answers the ENTER until a is inside
	deadline := time.Now().Add(5 * time.Second)
	for inside := false; !inside; {
		select {
		case <-entered:
			inside = true
		default:
			require.True(t, time.Now().Before(deadline), "a never entered the critical section")
			require.NoError(t, b.Receive(ctx))
		}
	}
	require.NotEmpty(t, b.Queue())

	stop()
	require.NoError(t, <-done)

	for i := 0; i < 10 && len(b.Queue()) > 0; i++ {
		require.NoError(t, b.Receive(ctx))
	}
	assert.Empty(t, b.Queue())
}

// TestShutdownWhileRequestingWithdraws stops a peer before it is allowed in;
// a competing peer must not stay blocked behind the abandoned ENTER
func TestShutdownWhileRequestingWithdraws(t *testing.T) {
	ctx := context.Background()
	_, newClient := startHub(t)

	a := newProcess(t, newClient(), types.Active)
	c := newProcess(t, newClient(), types.Active)
	require.NoError(t, a.Join(ctx))
	require.NoError(t, c.Join(ctx))
	require.NoError(t, a.Init(ctx))
	require.NoError(t, c.Init(ctx))

	// a goes first and gives up before c answers
	acquireCtx, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, a.Acquire(acquireCtx), context.DeadlineExceeded)
	assert.Equal(t, mutex.Idle, a.State())

	require.NoError(t, c.RequestToEnter(ctx))
	// a's ENTER orders before c's, so only a's RELEASE lets c in
	for i := 0; i < 10 && len(a.Queue()) == 0; i++ {
		require.NoError(t, a.Receive(ctx))
	}
	for i := 0; i < 10 && !c.AllowedToEnter(); i++ {
		require.NoError(t, c.Receive(ctx))
	}
	assert.True(t, c.AllowedToEnter())
}
