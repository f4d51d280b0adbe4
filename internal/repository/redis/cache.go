package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/sellbook/sellbook/internal/domain"
)

// Stores the value only while the generation still matches the one read
// before the load began.
// KEYS: generation, value. ARGV: generation, value, ttl_ms.
const luaSetIfGeneration = `
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then return 0 end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`

// Cache keeps computed statistics windows in redis. Concurrent misses on
// the same window share one load. Every invalidation bumps a generation so
// a load that overlapped a write never stores its totals.
type Cache struct {
	rdb   *redis.Client
	sf    singleflight.Group
	store *redis.Script
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client, store: redis.NewScript(luaSetIfGeneration)}
}

// Statistics returns the cached totals for window, calling load on a miss
// and caching its result for ttl. An unreadable entry counts as a miss.
func (c *Cache) Statistics(
	ctx context.Context,
	window string,
	ttl time.Duration,
	load func(ctx context.Context) (domain.Statistics, error),
) (domain.Statistics, error) {
	const op = "redis.Cache.Statistics"

	key := KeyStatistics(window)
	if s, ok, err := c.statistics(ctx, key); err != nil || ok {
		if err != nil {
			return domain.Statistics{}, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		if s, ok, err := c.statistics(ctx, key); err != nil || ok {
			return s, err
		}
		gen, err := c.rdb.Get(ctx, KeyStatisticsGeneration()).Result()
		if errors.Is(err, redis.Nil) {
			gen = "0"
		} else if err != nil {
			return nil, err
		}
		s, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(s); err == nil {
			_ = c.store.Run(ctx, c.rdb,
				[]string{KeyStatisticsGeneration(), key},
				gen, b, ttl.Milliseconds(),
			).Err()
		}
		return s, nil
	})
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("%s: %w", op, err)
	}

	return v.(domain.Statistics), nil
}

// InvalidateStatistics drops the cached totals of the given windows.
func (c *Cache) InvalidateStatistics(ctx context.Context, windows ...string) error {
	const op = "redis.Cache.InvalidateStatistics"

	if len(windows) == 0 {
		return nil
	}

	keys := make([]string, 0, len(windows))
	for _, w := range windows {
		keys = append(keys, KeyStatistics(w))
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, KeyStatisticsGeneration())
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Cache) statistics(ctx context.Context, key string) (domain.Statistics, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Statistics{}, false, nil
	}
	if err != nil {
		return domain.Statistics{}, false, err
	}

	var s domain.Statistics
	if err := json.Unmarshal(b, &s); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return domain.Statistics{}, false, nil
	}
	return s, true, nil
}
