package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/playrps/rpsroom/internal/config"
	"github.com/playrps/rpsroom/internal/dependencies/clock"
	"github.com/playrps/rpsroom/internal/dependencies/random"
	"github.com/playrps/rpsroom/internal/metrics"
	"github.com/playrps/rpsroom/internal/presence"
	"github.com/playrps/rpsroom/internal/services/match"
	"github.com/playrps/rpsroom/internal/services/roomcode"
	"github.com/playrps/rpsroom/internal/services/round"
	"github.com/playrps/rpsroom/internal/session"
	"github.com/playrps/rpsroom/internal/store"
	"github.com/playrps/rpsroom/internal/store/memory"
	redisstore "github.com/playrps/rpsroom/internal/store/redis"
)

// App contains all wired application components
type App struct {
	Store    store.RoomStore
	Sessions *session.Manager

	Clock  clock.Clock
	Random random.Random

	Allocator    *roomcode.Allocator
	Coordinator  *match.Coordinator
	Synchronizer *round.Synchronizer
	Tracker      *presence.Tracker
	Metrics      *metrics.Metrics
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Storage selects and configures the storage backend
	Storage config.StorageConfig
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.Storage.Type
	if storageType == "" {
		storageType = config.StorageMemory
	}

	var roomStore store.RoomStore
	var sessionStore session.Store

	switch storageType {
	case config.StorageMemory:
		roomStore = memory.New()
		sessionStore = session.NewMemoryStore()
	case config.StorageRedis:
		rc := cfg.Storage.Redis
		redisStore, err := redisstore.New(redisstore.Config{
			URL:          rc.URL,
			PoolSize:     rc.PoolSize,
			MinIdleConns: rc.MinIdleConns,
			RoomTTL:      rc.RoomTTL,
			ViewerTTL:    rc.ViewerTTL,
		})
		if err != nil {
			return nil, err
		}
		roomStore = redisStore
		sessionStore = session.NewRedisStore(redisStore.Client(), rc.SessionTTL)
	default:
		return nil, errors.New("invalid storage type: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(roomStore, sessionStore, clk, rnd, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	roomStore store.RoomStore,
	sessionStore session.Store,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *App {
	m := metrics.New()
	sessions := session.NewManager(sessionStore, rnd, logger)
	allocator := roomcode.New(clk, rnd)
	coordinator := match.NewCoordinator(roomStore, allocator, sessions, clk, logger)
	synchronizer := round.NewSynchronizer(roomStore, sessions, clk, logger)
	tracker := presence.NewTracker(roomStore, m, logger)

	return &App{
		Store:        roomStore,
		Sessions:     sessions,
		Clock:        clk,
		Random:       rnd,
		Allocator:    allocator,
		Coordinator:  coordinator,
		Synchronizer: synchronizer,
		Tracker:      tracker,
		Metrics:      m,
	}
}

// Close releases the app's storage resources
func (a *App) Close() error {
	return a.Store.Close()
}
