package main

import (
	"fmt"

	"github.com/pixperk/lamlock/pkg/storage"
	"github.com/pixperk/lamlock/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <journal>...",
		Short: "Check that the recorded critical sections never overlap",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var all []types.Interval
			for _, path := range args {
				intervals, err := storage.LoadIntervals(path)
				if err != nil {
					return err
				}
				a.log.Info("loaded journal", zap.String("path", path), zap.Int("intervals", len(intervals)))
				all = append(all, intervals...)
			}

			overlaps := storage.Verify(all)
			for _, o := range overlaps {
				fmt.Fprintln(cmd.OutOrStdout(), o)
			}
			if len(overlaps) > 0 {
				return fmt.Errorf("%d overlapping critical sections", len(overlaps))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d critical sections, no overlap\n", len(all))
			return nil
		},
	}
}
