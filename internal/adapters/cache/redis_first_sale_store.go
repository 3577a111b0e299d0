package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
)

// DefaultFirstSaleKey is the Redis key holding the serialized table
const DefaultFirstSaleKey = "mcf:first_sale_table:v1"

// RedisFirstSaleStore keeps the first-sale table in Redis so every replica
// shares one materialization
type RedisFirstSaleStore struct {
	client *redis.Client
	logger *zap.Logger
	key    string
	ttl    time.Duration
}

// NewRedisFirstSaleStore creates a store. A ttl of zero keeps the table until
// overwritten; otherwise it should exceed the refresh interval.
func NewRedisFirstSaleStore(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisFirstSaleStore {
	if key == "" {
		key = DefaultFirstSaleKey
	}
	return &RedisFirstSaleStore{
		client: client,
		logger: logger,
		key:    key,
		ttl:    ttl,
	}
}

// Save overwrites the stored table
func (s *RedisFirstSaleStore) Save(ctx context.Context, table *domain.FirstSaleTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshal first-sale table: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}

	s.logger.Debug("Stored first-sale table in Redis",
		zap.String("key", s.key),
		zap.Int("keys", table.Len()),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Load returns the stored table or ports.ErrFirstSaleTableMissing
func (s *RedisFirstSaleStore) Load(ctx context.Context) (*domain.FirstSaleTable, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrFirstSaleTableMissing
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var table domain.FirstSaleTable
	if err := json.Unmarshal(val, &table); err != nil {
		return nil, fmt.Errorf("decode first-sale table: %w", err)
	}
	return &table, nil
}
