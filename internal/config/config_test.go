package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playrps/rpsroom/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, config.StorageMemory, cfg.Storage.Type)
	assert.Equal(t, "redis://localhost:6379", cfg.Storage.Redis.URL)
	assert.Equal(t, 24*time.Hour, cfg.Storage.Redis.RoomTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rpsroom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
storage:
  type: redis
  redis:
    url: redis://cache:6379/1
log:
  level: debug
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, config.StorageRedis, cfg.Storage.Type)
	assert.Equal(t, "redis://cache:6379/1", cfg.Storage.Redis.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset keys keep their defaults
	assert.Equal(t, 10, cfg.Storage.Redis.PoolSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RPSROOM_STORAGE_TYPE", "redis")
	t.Setenv("RPSROOM_SERVER_ADDR", ":7070")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.StorageRedis, cfg.Storage.Type)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoadRejectsUnknownStorageType(t *testing.T) {
	t.Setenv("RPSROOM_STORAGE_TYPE", "cassandra")

	_, err := config.Load("")
	require.Error(t, err)
}
