package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Client state operations

func (s *Storage) SaveEntries(ctx context.Context, clientID model.ClientID, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	fields := make([]any, 0, len(entries)*2)
	for k, v := range entries {
		fields = append(fields, k, v)
	}

	key := clientStateKey(clientID)

	// MULTI/EXEC so readers never observe a half-written client state
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields...)
	if s.cfg.ClientStateTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.ClientStateTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) GetEntry(ctx context.Context, clientID model.ClientID, key string) (string, error) {
	value, err := s.client.HGet(ctx, clientStateKey(clientID), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrEntryNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *Storage) DeleteEntries(ctx context.Context, clientID model.ClientID, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.HDel(ctx, clientStateKey(clientID), keys...).Err()
}

// Content cache operations

func (s *Storage) SaveContent(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, contentKey(key), data, s.cfg.ContentTTL).Err()
}

func (s *Storage) GetContent(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, contentKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

func (s *Storage) InvalidateContent(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = contentKey(k)
	}
	return s.client.Del(ctx, redisKeys...).Err()
}
