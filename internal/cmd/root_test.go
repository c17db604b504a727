package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns everything it printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "2024-12-01T10:00:00Z")
	assert.Equal(t, "1.2.3 (built 2024-12-01T10:00:00Z)", rootCmd.Version)
}

func TestRootCmd(t *testing.T) {
	assert.Equal(t, "pwascout", rootCmd.Use)

	for _, name := range []string{"seed", "drain", "pwas", "show", "queue"} {
		sub, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "db-driver", "db-dsn", "redis-addr", "queue-key", "log-level", "timezone"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.NotNil(t, drainCmd.Flags().Lookup("metrics-addr"))
	assert.NotNil(t, drainCmd.Flags().Lookup("worker-timeout"))
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "urls", cfg.Redis.QueueKey)
	assert.Equal(t, 12, cfg.DomainThreshold)
	assert.Equal(t, 5*time.Second, cfg.WorkerTimeout)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigSources(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	configContent := `
domain_threshold: 20
worker_timeout: 8s
timezone: Asia/Tokyo
skip_words: [login, admin]
redis:
  queue_key: from-file
database:
  driver: postgres
  dsn: postgres://crawler@localhost/pwa?sslmode=disable
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pwascout.yml"), []byte(configContent), 0644))

	// Environment beats the config file.
	t.Setenv("PWA_REDIS_QUEUE_KEY", "from-env")
	t.Setenv("PWA_REQUEST_TIMEOUT", "7s")

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.DomainThreshold)
	assert.Equal(t, 8*time.Second, cfg.WorkerTimeout)
	assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, []string{"login", "admin"}, cfg.SkipWords)
	assert.Equal(t, "from-env", cfg.Redis.QueueKey)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://crawler@localhost/pwa?sslmode=disable", cfg.Database.DSN)
}

func TestLoadConfigExplicitFileMissing(t *testing.T) {
	cfgFile = filepath.Join(t.TempDir(), "missing.yml")
	t.Cleanup(func() { cfgFile = "" })

	_, err := loadConfig(rootCmd)
	assert.Error(t, err)
}

func TestShowConfig(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PWA_DOMAIN_THRESHOLD", "30")

	out, err := execute(t, "--show-config")
	require.NoError(t, err)

	assert.Contains(t, out, "# Current pwascout Configuration")
	assert.Contains(t, out, "domain_threshold: 30")
	assert.Contains(t, out, "queue_key: urls")
	assert.Contains(t, out, "PWA_")
}

func TestShowCurrentConfigNil(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, showCurrentConfig(&out, &out, nil))
}
