package main

import (
	"context"
	"fmt"
	"net"
	"time"

	pb "github.com/pixperk/lamlock/api/v1"
	"github.com/pixperk/lamlock/pkg/config"
	"github.com/pixperk/lamlock/pkg/gateway"
	"github.com/pixperk/lamlock/pkg/group"
	"github.com/pixperk/lamlock/pkg/server"
	mtime "github.com/pixperk/lamlock/pkg/time"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func newHubCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hub",
		Short: "Run the group hub peers exchange messages through",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHub(cmd.Context(), a.cfg, a.log)
		},
	}
}

func runHub(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	hub := group.NewHub(logger.Named("hub"), mtime.NewClock(), group.Config{Grace: cfg.HeartbeatGrace})

	grpcServer := grpc.NewServer()
	pb.RegisterGroupServer(grpcServer, server.NewServer(hub, logger.Named("server")))

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening", zap.String("addr", cfg.ListenAddr))
		return grpcServer.Serve(listener)
	})

	if cfg.HeartbeatGrace > 0 {
		g.Go(func() error {
			hub.RunExpiry(ctx, cfg.HeartbeatGrace/2)
			return nil
		})
	}

	var gw *gateway.Server
	if cfg.HTTPAddr != "" {
		gw = gateway.NewServer(cfg.HTTPAddr, hub.Health)
		g.Go(func() error {
			logger.Info("HTTP gateway listening", zap.String("addr", cfg.HTTPAddr))
			return gw.Start(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down hub")

		// closing the hub ends every Subscribe stream, so GracefulStop can return
		hub.Close()
		grpcServer.GracefulStop()

		if gw == nil {
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return gw.Stop(shutdownCtx)
	})

	return g.Wait()
}
