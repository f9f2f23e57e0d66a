package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

const timestampsKey = "forecast_timestamps"

// RedisConfig holds connection settings for the shared forecast cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
}

// RedisCache stores gzip-compressed JSON forecasts in Redis, tracking write
// times in a sorted set so stale keys can be purged.
type RedisCache struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisCache connects a RedisCache. The connection is lazy.
func NewRedisCache(cfg RedisConfig) *RedisCache {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return &RedisCache{client: redis.NewClient(opts), now: time.Now}
}

// Ping checks connectivity.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Get(ctx context.Context, key string) (*weather.UnifiedForecast, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	decompressed, err := decompress(val)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	if decompressed == nil {
		return nil, nil
	}

	var forecast weather.UnifiedForecast
	if err := json.Unmarshal(decompressed, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, forecast *weather.UnifiedForecast, ttl time.Duration) error {
	val, err := json.Marshal(forecast)
	if err != nil {
		return err
	}

	compressed, err := compress(val)
	if err != nil {
		return fmt.Errorf("failed to compress: %w", err)
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, compressed, ttl).Err(); err != nil {
		return err
	}

	return r.client.ZAdd(ctx, timestampsKey, redis.Z{
		Score:  float64(r.now().Unix()),
		Member: key,
	}).Err()
}

func (r *RedisCache) DeleteOlderThan(ctx context.Context, age time.Duration) error {
	cutoff := r.now().Add(-age).Unix()

	keys, err := r.client.ZRangeByScore(ctx, timestampsKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return err
	}

	members := make([]interface{}, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	return r.client.ZRem(ctx, timestampsKey, members...).Err()
}

func compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
