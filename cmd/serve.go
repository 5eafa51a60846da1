package main

import (
	"bountywatch/internal/api"
	"bountywatch/internal/api/handler"
	"bountywatch/internal/config"
	"bountywatch/internal/monitor"
	"bountywatch/pkg/logger"
	"bountywatch/pkg/metrics"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, m monitor.Monitor) func(ctx context.Context) {
	server := api.NewServer(api.Deps{Deps: handler.Deps{
		Monitor:            m,
		TelegramConfigured: cfg.TelegramConfigured(),
	}}, api.NewOptions(cfg))

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the API server that runs the monitor on every /api/notify call",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mp, err := metrics.NewPrometheusProvider(prometheus.DefaultRegisterer)
			if err != nil {
				logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
			}
			rec, err := metrics.NewRecorder(mp)
			if err != nil {
				logger.Fatal(ctx, "could not create metrics recorder", zap.Error(err))
			}

			m, closeStore := getMonitor(ctx, cfg, rec)
			defer closeStore()

			stopWebserver := setupServer(ctx, cfg, m)

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
			if err := mp.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "could not shut down meter provider", zap.Error(err))
			}
		},
	}

	return cmd
}
