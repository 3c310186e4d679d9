package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pixperk/lamlock/pkg/config"
	"github.com/pixperk/lamlock/pkg/group"
	"github.com/pixperk/lamlock/pkg/mutex"
	"github.com/pixperk/lamlock/pkg/storage"
	mtime "github.com/pixperk/lamlock/pkg/time"
	"github.com/pixperk/lamlock/pkg/transport"
	"github.com/pixperk/lamlock/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type demoOptions struct {
	active     int
	passive    int
	duration   time.Duration
	crashAfter time.Duration
}

func newDemoCmd(a *app) *cobra.Command {
	opts := demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a group of in-process peers and verify mutual exclusion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), a.cfg, a.log, opts)
		},
	}
	cmd.Flags().IntVar(&opts.active, "active", 2, "number of ACTIVE peers")
	cmd.Flags().IntVar(&opts.passive, "passive", 1, "number of PASSIVE peers")
	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "how long the peers run")
	cmd.Flags().DurationVar(&opts.crashAfter, "crash-after", 0, "stop the last ACTIVE peer without leaving after this long, 0 disables")
	return cmd
}

type memoryRecorder struct {
	mu        sync.Mutex
	intervals []types.Interval
}

func (r *memoryRecorder) Record(_ context.Context, interval types.Interval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intervals = append(r.intervals, interval)
	return nil
}

func runDemo(ctx context.Context, cfg config.Config, logger *zap.Logger, opts demoOptions) error {
	if opts.active < 1 || opts.passive < 0 {
		return errors.New("demo needs at least one ACTIVE peer")
	}

	clock := mtime.NewClock()
	hub := group.NewHub(logger.Named("hub"), clock, group.Config{})
	defer hub.Close()

	recorder := &memoryRecorder{}
	behaviors := make([]types.Behavior, 0, opts.active+opts.passive)
	for range opts.active {
		behaviors = append(behaviors, types.Active)
	}
	for range opts.passive {
		behaviors = append(behaviors, types.Passive)
	}

	seed := time.Now().UnixNano()
	procs := make([]*mutex.Process, len(behaviors))
	for i, b := range behaviors {
		procs[i] = mutex.New(transport.NewMemory(hub, clock), mutex.Config{
			Group:          cfg.Group,
			Name:           fmt.Sprintf("peer-%d", i+1),
			Behavior:       b,
			ReceiveTimeout: cfg.ReceiveTimeout,
			SuspectAfter:   cfg.SuspectAfter,
		},
			mutex.WithLogger(logger),
			mutex.WithClock(clock),
			mutex.WithPolicy(mutex.NewRandomPolicy(seed+int64(i), cfg.MaxHold)),
			mutex.WithRecorder(recorder),
		)
		if err := procs[i].Join(ctx); err != nil {
			return err
		}
	}
	for _, p := range procs {
		if err := p.Init(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range procs {
		runCtx := ctx
		if opts.crashAfter > 0 && i == opts.active-1 {
			var crash context.CancelFunc
			runCtx, crash = context.WithTimeout(ctx, opts.crashAfter)
			defer crash()
			logger.Info("peer will crash", zap.Stringer("peer", p.ID()), zap.Duration("after", opts.crashAfter))
		}
		g.Go(func() error {
			return p.Run(runCtx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	recorder.mu.Lock()
	intervals := recorder.intervals
	recorder.mu.Unlock()

	overlaps := storage.Verify(intervals)
	for _, o := range overlaps {
		logger.Error("mutual exclusion violated", zap.Stringer("overlap", o))
	}
	logger.Info("demo finished",
		zap.Int("critical_sections", len(intervals)),
		zap.Int("overlaps", len(overlaps)),
	)
	if len(overlaps) > 0 {
		return fmt.Errorf("%d overlapping critical sections", len(overlaps))
	}
	return nil
}
