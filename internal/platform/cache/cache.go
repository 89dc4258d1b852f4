// Package cache provides an optional redis read cache for the
// current-annotation projection. When REDIS_ADDR is unset the cache is
// disabled and every lookup falls through to the store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/riplabs/annotdb-backend/internal/platform/envutil"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Cache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// New connects to redis using REDIS_ADDR. It returns (nil, nil) when no
// address is configured; a nil *Cache is safe to use and caches nothing.
func New(logg *logger.Logger) (*Cache, error) {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := time.Duration(envutil.Int("CACHE_TTL_SECONDS", 300)) * time.Second
	return &Cache{
		log: logg.With("component", "Cache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func accountKey(address string) string {
	return "annot:current:" + address
}

// GetAccountAnnotations returns the cached current annotations for an
// account, or (nil, false) on a miss. Cache errors degrade to a miss.
func (c *Cache) GetAccountAnnotations(ctx context.Context, address string) ([]KeyValue, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, accountKey(address)).Bytes()
	if err == goredis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache read failed", "account", address, "error", err)
		return nil, false
	}
	var annotations []KeyValue
	if err := json.Unmarshal(raw, &annotations); err != nil {
		c.log.Warn("cache entry corrupt, dropping", "account", address, "error", err)
		_ = c.rdb.Del(ctx, accountKey(address)).Err()
		return nil, false
	}
	return annotations, true
}

func (c *Cache) SetAccountAnnotations(ctx context.Context, address string, annotations []KeyValue) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(annotations)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, accountKey(address), raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "account", address, "error", err)
	}
}

// InvalidateAccounts drops the cached projection for the given addresses.
// Ingest and hide call this after committing.
func (c *Cache) InvalidateAccounts(ctx context.Context, addresses []string) {
	if c == nil || len(addresses) == 0 {
		return
	}
	keys := make([]string, 0, len(addresses))
	for _, address := range addresses {
		keys = append(keys, accountKey(address))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache invalidation failed", "error", err)
	}
}
