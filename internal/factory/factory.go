package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/config"
	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/middleware"
	"github.com/mcoot/communityportal/internal/session"
	"github.com/mcoot/communityportal/internal/storage"
	filestorage "github.com/mcoot/communityportal/internal/storage/file"
	"github.com/mcoot/communityportal/internal/storage/memory"
	redisstorage "github.com/mcoot/communityportal/internal/storage/redis"
	"github.com/mcoot/communityportal/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageMemory
	StorageTypeRedis  = config.StorageRedis
	StorageTypeFile   = config.StorageFile
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Client *apiclient.Client

	// Services
	Registry     *session.Registry
	Content      *content.Service
	HubManager   *sse.HubManager
	Broadcaster  *sse.Broadcaster
	LoginLimiter *middleware.RateLimiter
}

// Config holds configuration for the application factory
type Config struct {
	// APIURL is the remote REST API (optional, defaults to apiclient's default)
	APIURL     string
	APITimeout time.Duration
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "file")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// StateDir holds client state files (required if StorageType is "file")
	StateDir string
	// ContentTTL is how long public content stays cached. Zero disables expiry.
	ContentTTL time.Duration
	// LoginRatePerMinute throttles login and signup per IP. Zero disables it.
	LoginRatePerMinute int
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New(clk, cfg.ContentTTL)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisCfg := *cfg.RedisConfig
		redisCfg.ContentTTL = cfg.ContentTTL
		redisStore, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeFile:
		if cfg.StateDir == "" {
			return nil, errors.New("StateDir required when StorageType is file")
		}
		// Content is re-fetchable, so only client state goes to disk
		store = storage.Combine(filestorage.New(cfg.StateDir), memory.New(clk, cfg.ContentTTL))
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'file'")
	}

	var opts []apiclient.Option
	if cfg.APITimeout > 0 {
		opts = append(opts, apiclient.WithTimeout(cfg.APITimeout))
	}
	client := apiclient.New(cfg.APIURL, opts...)

	// Redis is the backend several portal instances share, so cached
	// sessions are checked against it on every request
	var registryOpts []session.RegistryOption
	if storageType == StorageTypeRedis {
		registryOpts = append(registryOpts, session.WithRevalidation())
	}

	return newWithDependencies(store, clk, client, cfg.LoginRatePerMinute, logger, registryOpts...), nil
}

// FromConfig creates an App from the server's environment configuration
func FromConfig(cfg *config.Config, logger *slog.Logger) (*App, error) {
	fc := Config{
		APIURL:             cfg.APIURL,
		APITimeout:         cfg.APITimeout,
		Logger:             logger,
		StorageType:        cfg.StorageType,
		StateDir:           cfg.StateDir,
		ContentTTL:         cfg.ContentTTL,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
	}
	if cfg.StorageType == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Redis.URL
		if cfg.Redis.PoolSize > 0 {
			redisCfg.PoolSize = cfg.Redis.PoolSize
		}
		if cfg.Redis.ClientStateTTL > 0 {
			redisCfg.ClientStateTTL = cfg.Redis.ClientStateTTL
		}
		fc.RedisConfig = &redisCfg
	}
	return New(fc)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, client *apiclient.Client, loginRate int, logger *slog.Logger, registryOpts ...session.RegistryOption) *App {
	registry := session.NewRegistry(store, clk, logger, registryOpts...)
	contentService := content.NewService(client, store, logger)
	hubManager := sse.NewHubManager(logger)

	// Every session store pushes its changes to the browser's open tabs
	broadcaster := sse.NewBroadcaster(hubManager, logger)
	registry.OnOpen(broadcaster.Attach)

	var limiter *middleware.RateLimiter
	if loginRate > 0 {
		limiter = middleware.NewRateLimiter(loginRate)
	}

	return &App{
		Storage:      store,
		Clock:        clk,
		Client:       client,
		Registry:     registry,
		Content:      contentService,
		HubManager:   hubManager,
		Broadcaster:  broadcaster,
		LoginLimiter: limiter,
	}
}

// Close stops the event streams and releases the storage backend
func (a *App) Close() error {
	a.HubManager.CloseAll()
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
