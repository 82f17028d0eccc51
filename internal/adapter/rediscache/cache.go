// Package rediscache caches computed leaderboards in Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"physquiz/internal/domain"
)

// DefaultTTL bounds how stale a cached board can get if an eviction is lost.
const DefaultTTL = time.Minute

// Cache stores one hash per mode, keyed by limit. Evicting a mode drops every
// limit at once.
type Cache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ domain.LeaderboardCache = (*Cache)(nil)

// New wraps client. A zero ttl uses DefaultTTL.
func New(client redis.UniversalClient, prefix string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// Dial connects to addr and verifies the server answers.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func (c *Cache) key(mode domain.GameMode) string {
	return c.prefix + "leaderboard:" + string(mode)
}

// Get returns the cached rows for mode and limit.
func (c *Cache) Get(ctx context.Context, mode domain.GameMode, limit int) ([]domain.ScoreRow, bool, error) {
	raw, err := c.client.HGet(ctx, c.key(mode), strconv.Itoa(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rows []domain.ScoreRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, fmt.Errorf("decode cached leaderboard: %w", err)
	}
	return rows, true, nil
}

// Put stores rows and refreshes the hash TTL.
func (c *Cache) Put(ctx context.Context, mode domain.GameMode, limit int, rows []domain.ScoreRow) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	key := c.key(mode)
	_, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, strconv.Itoa(limit), raw)
		p.Expire(ctx, key, c.ttl)
		return nil
	})
	return err
}

// Invalidate drops every cached board for modes.
func (c *Cache) Invalidate(ctx context.Context, modes ...domain.GameMode) error {
	if len(modes) == 0 {
		return nil
	}
	keys := make([]string, len(modes))
	for i, m := range modes {
		keys[i] = c.key(m)
	}
	return c.client.Del(ctx, keys...).Err()
}
