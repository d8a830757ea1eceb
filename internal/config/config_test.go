package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Upstream.APIKeys = []string{"k1", "k2"}
	cfg.Admin.Password = "pw"
	cfg.Admin.JWTSecret = "0123456789abcdef"
	return cfg
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.Server.ListenAddr)
	assert.Equal(t, DefaultGeminiBaseURL, cfg.Upstream.BaseURL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, time.Duration(DefaultUpstreamTimeout)*time.Second, cfg.UpstreamTimeout())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  listen_addr: "127.0.0.1:9000"
upstream:
  api_keys: ["file-a", " ", "file-b"]
  base_url: "http://upstream.local/v1beta/"
database:
  driver: POSTGRES
  url: "postgres://localhost/db"
admin:
  username: root
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("GEMINI_API_KEYS", "env-a, env-b ,,env-c")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "15")
	t.Setenv("DEBUG", "yes")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"env-a", "env-b", "env-c"}, cfg.Upstream.APIKeys)
	assert.Equal(t, "http://upstream.local/v1beta", cfg.Upstream.BaseURL)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "root", cfg.Admin.Username)
	assert.Equal(t, "secret", cfg.Admin.Password)
	assert.Equal(t, 15, cfg.Upstream.TimeoutSeconds)
	assert.True(t, cfg.Logging.Debug)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	t.Run("empty pool", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upstream.APIKeys = nil
		assert.ErrorContains(t, cfg.Validate(), "upstream.api_keys")
	})
	t.Run("short jwt secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.Admin.JWTSecret = "short"
		assert.ErrorContains(t, cfg.Validate(), "admin.jwt_secret")
	})
	t.Run("unknown driver", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Driver = "mysql"
		assert.ErrorContains(t, cfg.Validate(), "database.driver")
	})
	t.Run("non-positive timeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Upstream.TimeoutSeconds = 0
		assert.ErrorContains(t, cfg.Validate(), "upstream.timeout_seconds")
	})
	t.Run("missing admin password", func(t *testing.T) {
		cfg := validConfig()
		cfg.Admin.Password = ""
		assert.ErrorContains(t, cfg.Validate(), "admin.password")
	})
}

func TestCheckAdminPasswordPlain(t *testing.T) {
	cfg := validConfig()
	assert.True(t, CheckAdminPassword(cfg, "admin", "pw"))
	assert.False(t, CheckAdminPassword(cfg, "admin", "other"))
	assert.False(t, CheckAdminPassword(cfg, "root", "pw"))
	assert.False(t, CheckAdminPassword(cfg, "admin", ""))
}

func TestCheckAdminPasswordHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pw"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := validConfig()
	cfg.Admin.PasswordHash = string(hash)
	assert.True(t, CheckAdminPassword(cfg, "admin", "hashed-pw"))
	assert.False(t, CheckAdminPassword(cfg, "admin", "pw"), "hash takes precedence over plain password")
}

func TestRequiresRestart(t *testing.T) {
	prev := validConfig()
	next := validConfig()
	next.Logging.Debug = true
	assert.False(t, RequiresRestart(prev, next))

	next.Upstream.APIKeys = []string{"k1", "k3"}
	assert.True(t, RequiresRestart(prev, next))
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  debug: false\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, func(cfg *Config) { changes <- cfg }))

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  debug: true\n"), 0o600))

	select {
	case cfg := <-changes:
		assert.True(t, cfg.Logging.Debug)
	case <-time.After(5 * time.Second):
		t.Fatal("expected reload after write")
	}
}
