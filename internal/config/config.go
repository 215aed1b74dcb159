package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StorageType selects the room and session store backend
type StorageType string

const (
	StorageMemory StorageType = "memory"
	StorageRedis  StorageType = "redis"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type StorageConfig struct {
	Type  StorageType
	Redis RedisConfig
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	RoomTTL      time.Duration
	ViewerTTL    time.Duration
	SessionTTL   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from an optional config file and the
// RPSROOM_* environment, with defaults suitable for local development.
// A missing config file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("rpsroom")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/rpsroom")
	}

	v.SetEnvPrefix("RPSROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdowntimeout", 10*time.Second)
	v.SetDefault("storage.type", string(StorageMemory))
	v.SetDefault("storage.redis.url", "redis://localhost:6379")
	v.SetDefault("storage.redis.poolsize", 10)
	v.SetDefault("storage.redis.minidleconns", 2)
	v.SetDefault("storage.redis.roomttl", 24*time.Hour)
	v.SetDefault("storage.redis.viewerttl", time.Minute)
	v.SetDefault("storage.redis.sessionttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.Storage.Type {
	case StorageMemory, StorageRedis:
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}

	return &cfg, nil
}
