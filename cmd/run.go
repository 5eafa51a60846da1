package main

import (
	"bountywatch/internal/config"
	"bountywatch/pkg/logger"
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Performs a single monitoring run, for cron or other external schedulers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			m, closeStore := getMonitor(ctx, cfg, nil)
			defer closeStore()

			res, err := m.Run(ctx)
			if err != nil {
				logger.Error(ctx, "run failed", zap.Error(err))

				return fmt.Errorf("run failed: %w", err)
			}
			for _, t := range res.Targets {
				logger.Info(ctx, "candidate target",
					zap.String("url", t.URL),
					zap.String("program", t.Program),
					zap.String("platform", string(t.Platform)))
			}

			return nil
		},
	}

	return cmd
}
