package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellbook/sellbook/internal/domain"
)

// requireRedis connects to the server named by SELLBOOK_TEST_REDIS_ADDR and
// empties its selected database.
func requireRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("SELLBOOK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SELLBOOK_TEST_REDIS_ADDR not set, skipping")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	return rdb
}

func TestCacheServesStoredStatistics(t *testing.T) {
	c := New(requireRedis(t))
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (domain.Statistics, error) {
		loads++
		return domain.Statistics{TotalSelling: 7}, nil
	}

	for range 2 {
		s, err := c.Statistics(ctx, "all", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, int64(7), s.TotalSelling)
	}
	assert.Equal(t, 1, loads)

	require.NoError(t, c.InvalidateStatistics(ctx, "all"))
	_, err := c.Statistics(ctx, "all", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestCacheDropsLoadOverlappingInvalidation(t *testing.T) {
	c := New(requireRedis(t))
	ctx := context.Background()

	loads := 0
	_, err := c.Statistics(ctx, "all", time.Minute, func(ctx context.Context) (domain.Statistics, error) {
		loads++
		// A write commits while the old totals are being computed.
		require.NoError(t, c.InvalidateStatistics(ctx, "all"))
		return domain.Statistics{TotalSelling: 1}, nil
	})
	require.NoError(t, err)

	s, err := c.Statistics(ctx, "all", time.Minute, func(context.Context) (domain.Statistics, error) {
		loads++
		return domain.Statistics{TotalSelling: 2}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, loads)
	assert.Equal(t, int64(2), s.TotalSelling)
}
