package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pixperk/lamlock/pkg/client"
	"github.com/pixperk/lamlock/pkg/config"
	"github.com/pixperk/lamlock/pkg/gateway"
	"github.com/pixperk/lamlock/pkg/mutex"
	"github.com/pixperk/lamlock/pkg/storage"
	"github.com/pixperk/lamlock/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newPeerCmd(a *app) *cobra.Command {
	var waitFor int

	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Join a hub and contend for the critical section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPeer(cmd.Context(), a.cfg, a.log, waitFor)
		},
	}
	cmd.Flags().IntVar(&waitFor, "wait-for", 0, "wait until the group has this many members before taking the membership snapshot")
	return cmd
}

func runPeer(ctx context.Context, cfg config.Config, logger *zap.Logger, waitFor int) error {
	behavior, err := types.ParseBehavior(cfg.Behavior)
	if err != nil {
		return err
	}

	ch, err := client.NewClient(cfg.HubAddr, client.Config{
		HeartbeatInterval: cfg.HeartbeatInterval,
		JoinTimeout:       30 * time.Second,
	}, client.WithLogger(logger.Named("client")))
	if err != nil {
		return err
	}
	defer ch.Close()

	opts := []mutex.Option{
		mutex.WithLogger(logger),
		mutex.WithPolicy(mutex.NewRandomPolicy(time.Now().UnixNano(), cfg.MaxHold)),
	}
	if cfg.JournalPath != "" {
		journal, err := storage.NewJournal(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer journal.Close()
		opts = append(opts, mutex.WithRecorder(journal))
	}

	p := mutex.New(ch, mutex.Config{
		Group:          cfg.Group,
		Name:           cfg.Name,
		Behavior:       behavior,
		ReceiveTimeout: cfg.ReceiveTimeout,
		SuspectAfter:   cfg.SuspectAfter,
	}, opts...)

	if err := p.Join(ctx); err != nil {
		return err
	}
	if err := waitForMembers(ctx, ch, cfg.Group, waitFor); err != nil {
		return err
	}
	if err := p.Init(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := p.Run(ctx)

		// leave on a fresh context, ctx is already done on shutdown
		leaveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if leaveErr := p.Leave(leaveCtx); leaveErr != nil {
			logger.Warn("failed to leave group", zap.Error(leaveErr))
		}
		return err
	})

	if cfg.HTTPAddr != "" {
		gw := gateway.NewServer(cfg.HTTPAddr, p.Health)
		g.Go(func() error {
			return gw.Start(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return gw.Stop(shutdownCtx)
		})
	}

	return g.Wait()
}

// polls the hub until the group has n members
func waitForMembers(ctx context.Context, ch mutex.Channel, name string, n int) error {
	if n <= 1 {
		return nil
	}

	op := func() error {
		members, err := ch.Subgroup(ctx, name)
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(members) < n {
			return fmt.Errorf("%d of %d members joined", len(members), n)
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(200*time.Millisecond), ctx))
}
