package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// RoomTTL bounds how long an abandoned room document lingers. This is
	// housekeeping, distinct from the 10-minute room code validity window
	// enforced by the coordinator.
	RoomTTL time.Duration

	// ViewerTTL is how long a presence entry survives without a refresh.
	// TTL expiry is what removes a viewer whose connection dropped
	// ungracefully.
	ViewerTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		RoomTTL:      24 * time.Hour,
		ViewerTTL:    time.Minute,
	}
}
