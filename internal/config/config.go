package config

import (
	"bountywatch/pkg/serrors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Snapshot backends.
const (
	BackendGitHub   = "github"
	BackendValkey   = "valkey"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config represents the application configuration structure.
// It contains settings for the environment, feeds, snapshot storage,
// notifications, the HTTP server and graceful shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"5m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request, a whole run included
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"4m" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// ClientTimeout bounds every outbound request (feeds, GitHub, Telegram)
		ClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" env-default:"30s" yaml:"clientTimeout"`
	} `yaml:"http"`

	// Feed selects where program lists are downloaded from and how they are parsed
	Feed struct {
		// Format is either bounty-targets (arkadiyt/bounty-targets-data layout) or programs
		Format string `env:"FEED_FORMAT" env-default:"bounty-targets" yaml:"format"`
		// HackerOneURL is the HackerOne program list
		HackerOneURL string `env:"FEED_HACKERONE_URL" env-default:"https://raw.githubusercontent.com/arkadiyt/bounty-targets-data/main/data/hackerone_data.json" yaml:"hackeroneURL"` //nolint: lll
		// BugcrowdURL is the Bugcrowd program list
		BugcrowdURL string `env:"FEED_BUGCROWD_URL" env-default:"https://raw.githubusercontent.com/arkadiyt/bounty-targets-data/main/data/bugcrowd_data.json" yaml:"bugcrowdURL"` //nolint: lll
	} `yaml:"feed"`

	// Snapshot configures where the last seen asset list is persisted
	Snapshot struct {
		// Backend is one of github, valkey, postgres or file
		Backend string `env:"SNAPSHOT_BACKEND" env-default:"github" yaml:"backend"`
		// Key is the file name (github, file) or key (valkey, postgres) of the snapshot
		Key string `env:"GITHUB_FILENAME" env-default:"data.json" yaml:"key"`
		// Dir is the directory used by the file backend
		Dir string `env:"SNAPSHOT_DIR" env-default:"." yaml:"dir"`
	} `yaml:"snapshot"`

	// GitHub contains the github snapshot backend settings
	GitHub struct {
		// Token authenticates commits
		Token string `env:"GITHUB_TOKEN" yaml:"token"`
		// Repo is the target repository in owner/repo form
		Repo string `env:"GITHUB_REPO" yaml:"repo"`
		// Branch is the branch to commit to; empty means the default branch
		Branch string `env:"GITHUB_BRANCH" yaml:"branch"`
	} `yaml:"github"`

	// Valkey contains the valkey snapshot backend settings
	Valkey struct {
		// Addr is the host:port of the server
		Addr string `env:"VALKEY_ADDR" env-default:"localhost:6379" yaml:"addr"`
		// Password authenticates the connection
		Password string `env:"VALKEY_PASSWORD" yaml:"password"`
	} `yaml:"valkey"`

	// Database contains the postgres snapshot backend connection settings
	Database struct {
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"bountywatch" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"bountywatch" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"4" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"1" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// Telegram contains the notification channel settings
	Telegram struct {
		// BotToken is the Bot API credential
		BotToken string `env:"TELEGRAM_BOT_TOKEN" yaml:"botToken"`
		// UserID is the chat that receives alerts
		UserID string `env:"TELEGRAM_USER_ID" yaml:"userID"`
		// APIURL is the Bot API root
		APIURL string `env:"TELEGRAM_API_URL" env-default:"https://api.telegram.org" yaml:"apiURL"`
	} `yaml:"telegram"`

	// Targets configures candidate target expansion
	Targets struct {
		// Exclude is a regular expression matched against target hosts
		Exclude string `env:"TARGETS_EXCLUDE" env-default:"\\.(gov|edu)$" yaml:"exclude"`
	} `yaml:"targets"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// TelegramConfigured reports whether both Telegram credentials are set.
func (c *Config) TelegramConfigured() bool {
	return c.Telegram.BotToken != "" && c.Telegram.UserID != ""
}

// GitHubRepo splits GITHUB_REPO into owner and repository name.
func (c *Config) GitHubRepo() (string, string, error) {
	owner, repo, ok := strings.Cut(c.GitHub.Repo, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", serrors.With(serrors.ErrBadRequest, "GITHUB_REPO must be owner/repo, got %q", c.GitHub.Repo)
	}

	return owner, repo, nil
}

// Validate checks values cleanenv cannot check on its own.
func (c *Config) Validate() error {
	switch c.Feed.Format {
	case "bounty-targets", "programs":
	default:
		return serrors.With(serrors.ErrBadRequest, "unknown FEED_FORMAT %q", c.Feed.Format)
	}
	if c.Feed.HackerOneURL == "" || c.Feed.BugcrowdURL == "" {
		return serrors.With(serrors.ErrBadRequest, "both feed URLs are required")
	}
	if c.Snapshot.Key == "" {
		return serrors.With(serrors.ErrBadRequest, "snapshot key is required")
	}

	switch c.Snapshot.Backend {
	case BackendGitHub:
		if _, _, err := c.GitHubRepo(); err != nil {
			return err
		}
	case BackendValkey:
		if c.Valkey.Addr == "" {
			return serrors.With(serrors.ErrBadRequest, "VALKEY_ADDR is required for the valkey backend")
		}
	case BackendPostgres:
		if c.Database.Host == "" || c.Database.DatabaseName == "" {
			return serrors.With(serrors.ErrBadRequest, "DATABASE_HOST and DATABASE_NAME are required for the postgres backend")
		}
	case BackendFile:
	default:
		return serrors.With(serrors.ErrBadRequest, "unknown SNAPSHOT_BACKEND %q", c.Snapshot.Backend)
	}

	return nil
}

// Load fills a Config from the yaml file at configPath, or from the
// environment alone when configPath is empty, and validates it.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	var cfg Config
	var err error
	if configPath == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(configPath, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
