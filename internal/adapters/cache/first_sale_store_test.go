package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/adapters/cache"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
)

func sampleTable() *domain.FirstSaleTable {
	return domain.NewFirstSaleTable(map[domain.CustomerProductKey]string{
		{Customer: "ana@example.com", Product: "A001"}: "tx-1",
		{Customer: "987654321", Product: "A009"}:       "tx-9",
	}, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), 40, 3)
}

// storeContract runs the same checks against every FirstSaleStore
func storeContract(t *testing.T, store ports.FirstSaleStore) {
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrFirstSaleTableMissing)

	table := sampleTable()
	require.NoError(t, store.Save(ctx, table))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, table.Equal(loaded))
	assert.Equal(t, 40, loaded.TransactionCount)
	assert.Equal(t, 3, loaded.SkippedCount)

	replacement := domain.NewFirstSaleTable(nil, time.Now(), 0, 0)
	require.NoError(t, store.Save(ctx, replacement))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestMemoryFirstSaleStore(t *testing.T) {
	storeContract(t, cache.NewMemoryFirstSaleStore())
}

// NOTE: requires a running Redis; set REDIS_TEST_ADDR or use localhost:6379.
func TestRedisFirstSaleStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Could not connect to test redis: %v", err)
	}
	defer client.Close()

	key := "test:first_sale_table:" + time.Now().Format("150405.000000")
	defer client.Del(ctx, key)

	storeContract(t, cache.NewRedisFirstSaleStore(client, key, time.Minute, zap.NewNop()))

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
