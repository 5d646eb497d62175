// Package redis provides an outputcache.Store backed by Redis, shared by
// every feed instance pointing at the same server. Entries expire through
// Redis key TTLs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rhuss/packagefeed/pkg/outputcache"
)

// DefaultKeyPrefix namespaces cache keys.
const DefaultKeyPrefix = "packagefeed:output:"

// Config holds Redis connection settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store is a Redis-backed outputcache.Store.
type Store struct {
	client *goredis.Client
	prefix string
}

// Ensure Store implements outputcache.Store at compile time.
var _ outputcache.Store = (*Store)(nil)

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return NewFromClient(client, cfg.KeyPrefix), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Get returns the entry for key, or outputcache.ErrCacheMiss.
func (s *Store) Get(ctx context.Context, key string) (*outputcache.Response, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, outputcache.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get: %w", err)
	}
	var resp outputcache.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("redis: decode entry: %w", err)
	}
	return &resp, nil
}

// Set stores resp under key with the given TTL.
func (s *Store) Set(ctx context.Context, key string, resp *outputcache.Response, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("redis: encode entry: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

// HealthCheck pings the server.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
