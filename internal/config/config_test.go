package config_test

import (
	"bountywatch/internal/config"
	"bountywatch/pkg/serrors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GITHUB_REPO", "acme/bounty-state")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, config.BackendGitHub, cfg.Snapshot.Backend)
	require.Equal(t, "data.json", cfg.Snapshot.Key)
	require.Equal(t, "bounty-targets", cfg.Feed.Format)
	require.Equal(t, "https://api.telegram.org", cfg.Telegram.APIURL)
	require.Equal(t, `\.(gov|edu)$`, cfg.Targets.Exclude)
	require.Equal(t, 30*time.Second, cfg.HTTP.ClientTimeout)
	require.Equal(t, "/metrics", cfg.HTTP.MetricsPath)
	require.Equal(t, 10*time.Second, cfg.GracefulShutdownTimeout)

	owner, repo, err := cfg.GitHubRepo()
	require.NoError(t, err)
	require.Equal(t, "acme", owner)
	require.Equal(t, "bounty-state", repo)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "file")
	t.Setenv("SNAPSHOT_DIR", "/var/lib/bountywatch")
	t.Setenv("FEED_FORMAT", "programs")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_USER_ID", "42")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.BackendFile, cfg.Snapshot.Backend)
	require.Equal(t, "/var/lib/bountywatch", cfg.Snapshot.Dir)
	require.Equal(t, "programs", cfg.Feed.Format)
	require.True(t, cfg.TelegramConfigured())
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
snapshot:
  backend: valkey
  key: bountywatch:assets
valkey:
  addr: valkey:6379
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, config.BackendValkey, cfg.Snapshot.Backend)
	require.Equal(t, "bountywatch:assets", cfg.Snapshot.Key)
	require.Equal(t, "valkey:6379", cfg.Valkey.Addr)
	require.False(t, cfg.TelegramConfigured())
}

func TestLoad_Postgres(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "postgres")
	t.Setenv("DATABASE_HOST", "db")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.BackendPostgres, cfg.Snapshot.Backend)
	require.Equal(t, "db", cfg.Database.Host)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, "bountywatch", cfg.Database.DatabaseName)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "github without repo", env: map[string]string{"GITHUB_REPO": ""}},
		{name: "malformed repo", env: map[string]string{"GITHUB_REPO": "acme"}},
		{name: "nested repo", env: map[string]string{"GITHUB_REPO": "acme/a/b"}},
		{name: "unknown backend", env: map[string]string{"SNAPSHOT_BACKEND": "s3"}},
		{name: "unknown format", env: map[string]string{"SNAPSHOT_BACKEND": "file", "FEED_FORMAT": "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load("")
			require.ErrorIs(t, err, serrors.ErrBadRequest)
		})
	}
}
