// Package redis keeps each collection in one Redis hash mapping item name to quantity.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/domain/models"
)

// adjustScript applies a delta to one hash field, deleting it at zero or below and only
// creating it for a positive delta. Returns {existed, deleted, quantity}.
var adjustScript = goredis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
local delta = tonumber(ARGV[2])

if not current then
	if delta <= 0 then
		return {0, 0, 0}
	end
	redis.call('HSET', KEYS[1], ARGV[1], delta)
	return {0, 0, delta}
end

local updated = tonumber(current) + delta
if updated <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
	return {1, 1, 0}
end

redis.call('HSET', KEYS[1], ARGV[1], updated)
return {1, 0, updated}
`)

// Store keeps each collection in one Redis hash of name to quantity.
type Store struct {
	client *goredis.Client
	prefix string
	logger *zap.Logger
}

// New dials Redis and verifies the connection with PING.
func New(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	s := NewWithClient(client, cfg.KeyPrefix, logger)
	s.logger.Info("redis connected", zap.String("addr", cfg.Addr))
	return s, nil
}

// NewWithClient wraps an existing client; prefix is prepended to collection names.
func NewWithClient(client *goredis.Client, prefix string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, prefix: prefix, logger: logger}
}

func (s *Store) key(collection string) string {
	return s.prefix + collection
}

// ListAll reads the whole hash and orders it by name.
func (s *Store) ListAll(ctx context.Context, collection string) ([]models.Document, error) {
	values, err := s.client.HGetAll(ctx, s.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", collection, err)
	}

	docs := make([]models.Document, 0, len(values))
	for name, raw := range values {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			s.logger.Warn("skip malformed quantity", zap.String("name", name), zap.String("value", raw))
			continue
		}
		docs = append(docs, models.Document{Key: name, Fields: models.Fields{Quantity: qty}})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

func (s *Store) Get(ctx context.Context, collection, key string) (models.Fields, bool, error) {
	qty, err := s.client.HGet(ctx, s.key(collection), key).Int()
	if errors.Is(err, goredis.Nil) {
		return models.Fields{}, false, nil
	}
	if err != nil {
		return models.Fields{}, false, fmt.Errorf("hget %s/%s: %w", collection, key, err)
	}
	return models.Fields{Quantity: qty}, true, nil
}

func (s *Store) Put(ctx context.Context, collection, key string, fields models.Fields) error {
	if err := s.client.HSet(ctx, s.key(collection), key, fields.Quantity).Err(); err != nil {
		return fmt.Errorf("hset %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	if err := s.client.HDel(ctx, s.key(collection), key).Err(); err != nil {
		return fmt.Errorf("hdel %s/%s: %w", collection, key, err)
	}
	return nil
}

// Adjust runs adjustScript, which Redis executes atomically.
func (s *Store) Adjust(ctx context.Context, collection, key string, delta int) (models.Adjustment, error) {
	out, err := adjustScript.Run(ctx, s.client, []string{s.key(collection)}, key, delta).Int64Slice()
	if err != nil {
		return models.Adjustment{}, fmt.Errorf("adjust %s/%s: %w", collection, key, err)
	}
	if len(out) != 3 {
		return models.Adjustment{}, fmt.Errorf("adjust %s/%s: unexpected script reply %v", collection, key, out)
	}
	return models.Adjustment{Existed: out[0] == 1, Deleted: out[1] == 1, Quantity: int(out[2])}, nil
}

func (s *Store) Close(context.Context) error {
	return s.client.Close()
}
