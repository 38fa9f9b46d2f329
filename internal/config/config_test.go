package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "redis", cfg.Lock.Backend)
	require.Equal(t, 5*time.Second, cfg.Lock.TTL)
	require.True(t, cfg.Lock.Renew)
	require.Equal(t, "mysql", cfg.Storage.Backend)
	require.Equal(t, "@every 1m", cfg.Audit.Schedule)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("LOCK_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 3*time.Second, cfg.Lock.TTL)
	require.Equal(t, "memory", cfg.Lock.Backend)
	require.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	require.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
storage:
  backend: memory
lock:
  backend: memory
  ttl: 2s
notify:
  backend: websocket
audit:
  repair: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	require.Equal(t, "memory", cfg.Storage.Backend)
	require.Equal(t, 2*time.Second, cfg.Lock.TTL)
	require.Equal(t, "websocket", cfg.Notify.Backend)
	require.True(t, cfg.Audit.Repair)
	require.Equal(t, 2*time.Second, cfg.Notify.Timeout)
}

func TestLoadFromFile_RejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lock:\n  backend: zookeeper\n"), 0o600))

	_, err := LoadFromFile(path)
	require.ErrorContains(t, err, "unknown lock backend")
}

func TestValidate_NonPositiveTTL(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{Backend: "memory"},
		Lock:    LockConfig{Backend: "memory", TTL: 0},
		Notify:  NotifyConfig{Backend: "redis"},
	}
	require.ErrorContains(t, cfg.Validate(), "lock ttl")
}

func TestValidate_NonPositiveDurations(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage: StorageConfig{Backend: "memory"},
			Lock:    LockConfig{Backend: "memory", TTL: 5 * time.Second},
			Notify:  NotifyConfig{Backend: "redis", Timeout: 2 * time.Second},
			Leader:  LeaderConfig{TTL: 30 * time.Second},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name     string
		mutate   func(c *Config)
		expected string
	}{
		{name: "zero_notify_timeout", mutate: func(c *Config) { c.Notify.Timeout = 0 }, expected: "notify timeout"},
		{name: "negative_notify_timeout", mutate: func(c *Config) { c.Notify.Timeout = -time.Second }, expected: "notify timeout"},
		{name: "zero_leader_ttl", mutate: func(c *Config) { c.Leader.TTL = 0 }, expected: "leader ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			require.ErrorContains(t, cfg.Validate(), tt.expected)
		})
	}
}

func TestLoad_RejectsZeroLeaderTTL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEADER_TTL", "0s")

	_, err := Load()
	require.ErrorContains(t, err, "leader ttl")
}
