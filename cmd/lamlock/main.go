package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pixperk/lamlock/pkg/config"
	"github.com/pixperk/lamlock/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type app struct {
	v       *viper.Viper
	cfgPath string
	cfg     config.Config
	log     *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zap.NewNop()}

	root := &cobra.Command{
		Use:          "lamlock",
		Short:        "Fully distributed mutual exclusion with Lamport clocks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v, a.cfgPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "YAML config file")
	if err := config.BindFlags(a.v, flags); err != nil {
		panic(err)
	}

	root.AddCommand(
		newHubCmd(a),
		newPeerCmd(a),
		newDemoCmd(a),
		newVerifyCmd(a),
	)
	return root
}
