package main

import (
	"bountywatch/internal/config"
	"bountywatch/internal/monitor"
	"bountywatch/pkg/domain"
	"bountywatch/pkg/feed"
	"bountywatch/pkg/feed/httpfeed"
	"bountywatch/pkg/logger"
	"bountywatch/pkg/metrics"
	"bountywatch/pkg/notify"
	"bountywatch/pkg/notify/logsink"
	"bountywatch/pkg/notify/telegram"
	"bountywatch/pkg/snapshot"
	"bountywatch/pkg/snapshot/filestore"
	"bountywatch/pkg/snapshot/githubstore"
	"bountywatch/pkg/snapshot/pgstore"
	"bountywatch/pkg/snapshot/valkeystore"
	"bountywatch/pkg/targets"
	"context"
	"net/http"

	"go.uber.org/zap"
)

// getHTTPClient returns the client shared by feeds, GitHub and Telegram.
func getHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.HTTP.ClientTimeout}
}

// getSource creates the feed source of platform.
func getSource(ctx context.Context, cfg *config.Config, httpClient *http.Client, platform domain.Platform) feed.Source {
	decode, err := feed.DecoderFor(feed.Format(cfg.Feed.Format), platform)
	if err != nil {
		logger.Fatal(ctx, "could not create feed decoder", zap.Error(err))
	}
	url := cfg.Feed.HackerOneURL
	if platform == domain.PlatformBugcrowd {
		url = cfg.Feed.BugcrowdURL
	}

	return httpfeed.New(httpClient, platform, url, decode)
}

// getPostgres creates a PostgreSQL client using configuration values and returns it
// along with a cleanup function to close the connection pool.
func getPostgres(ctx context.Context, cfg *config.Config) (*pgstore.PgSQL, func()) {
	pgsql, err := pgstore.New(ctx, pgstore.Options{
		Username:           cfg.Database.Username,
		Password:           cfg.Database.Password,
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		Database:           cfg.Database.DatabaseName,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime:    cfg.Database.ConnMaxIdleTime,
		MaxOpenConnections: cfg.Database.MaxOpenConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		SslMode:            cfg.Database.SslMode,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create postgres storage", zap.Error(err))
	}

	return pgsql, func() {
		logger.Info(ctx, "closing postgres client...")
		if err = pgsql.Close(); err != nil {
			logger.Warn(ctx, "could not close postgres connection", zap.Error(err))
		}
	}
}

// getStore creates the configured snapshot backend and returns it along with
// a cleanup function.
func getStore(ctx context.Context, cfg *config.Config, httpClient *http.Client) (snapshot.Store, func()) {
	switch cfg.Snapshot.Backend {
	case config.BackendValkey:
		store, err := valkeystore.New(valkeystore.Options{Addr: cfg.Valkey.Addr, Password: cfg.Valkey.Password})
		if err != nil {
			logger.Fatal(ctx, "could not create valkey storage", zap.Error(err))
		}

		return store, func() {
			logger.Info(ctx, "closing valkey client...")
			store.Close()
		}
	case config.BackendPostgres:
		return getPostgres(ctx, cfg)
	case config.BackendFile:
		return filestore.New(cfg.Snapshot.Dir), func() {}
	default:
		owner, repo, err := cfg.GitHubRepo()
		if err != nil {
			logger.Fatal(ctx, "could not create github storage", zap.Error(err))
		}
		client := githubstore.NewClient(httpClient, cfg.GitHub.Token)

		return githubstore.New(client, owner, repo, cfg.GitHub.Branch), func() {}
	}
}

// getSink returns the Telegram sink, or a log sink when credentials are missing.
func getSink(ctx context.Context, cfg *config.Config, httpClient *http.Client) notify.Sink {
	if !cfg.TelegramConfigured() {
		logger.Warn(ctx, "telegram credentials not configured, new assets will only be logged")

		return logsink.Sink{}
	}

	return telegram.New(httpClient, cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.UserID)
}

// getMonitor wires a monitor from configuration. rec may be nil.
func getMonitor(ctx context.Context, cfg *config.Config, rec *metrics.Recorder) (monitor.Monitor, func()) {
	httpClient := getHTTPClient(cfg)

	expander, err := targets.NewExpander(cfg.Targets.Exclude)
	if err != nil {
		logger.Fatal(ctx, "could not create target expander", zap.Error(err))
	}

	store, closeStore := getStore(ctx, cfg, httpClient)

	return monitor.New(monitor.Deps{
		HackerOne: getSource(ctx, cfg, httpClient, domain.PlatformHackerOne),
		Bugcrowd:  getSource(ctx, cfg, httpClient, domain.PlatformBugcrowd),
		Store:     store,
		Sink:      getSink(ctx, cfg, httpClient),
		Expander:  expander,
		Metrics:   rec,
	}, monitor.NewOptions(cfg)), closeStore
}
