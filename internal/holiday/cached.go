package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheTTL = 7 * 24 * time.Hour
	cacheKeyPrefix  = "holidays"
)

// ErrCacheMiss is returned by a Store when the key is absent.
var ErrCacheMiss = errors.New("holiday cache miss")

// Store is the byte-level cache the CachedProvider reads through.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore adapts a Redis/Dragonfly client to Store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// CachedProvider caches a provider's results per country and calendar
// year. Concurrent misses for the same year share one upstream call.
type CachedProvider struct {
	next  Provider
	store Store
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedProvider wraps next with a read-through cache. A zero ttl uses
// one week.
func NewCachedProvider(next Provider, store Store, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedProvider{next: next, store: store, ttl: ttl}
}

func (p *CachedProvider) Holidays(ctx context.Context, country string, start, end time.Time) ([]Holiday, error) {
	var all []Holiday
	for year := start.Year(); year <= end.Year(); year++ {
		hs, err := p.year(ctx, strings.ToUpper(country), year)
		if err != nil {
			return nil, err
		}
		all = append(all, hs...)
	}
	return filter(all, start, end), nil
}

func (p *CachedProvider) year(ctx context.Context, country string, year int) ([]Holiday, error) {
	key := fmt.Sprintf("%s:%s:%d", cacheKeyPrefix, country, year)

	if b, err := p.store.Get(ctx, key); err == nil {
		var hs []Holiday
		if err := json.Unmarshal(b, &hs); err == nil {
			return hs, nil
		}
		slog.Warn("discarding corrupt holiday cache entry", "key", key)
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("holiday cache read failed", "key", key, "error", err)
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		hs, err := p.next.Holidays(ctx, country, from, to)
		if err != nil {
			return nil, err
		}

		b, err := json.Marshal(hs)
		if err == nil {
			err = p.store.Set(ctx, key, b, p.ttl)
		}
		if err != nil {
			slog.Warn("holiday cache write failed", "key", key, "error", err)
		}
		return hs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch holidays %s/%d: %w", country, year, err)
	}
	return v.([]Holiday), nil
}
