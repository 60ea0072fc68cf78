package pricecache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"vault_client/internal/app/port"

	"github.com/redis/go-redis/v9"
)

// redisClient is the subset of Redis operations the store needs.
type redisClient interface {
	MGet(ctx context.Context, keys ...string) ([]interface{}, error)
	SetMany(ctx context.Context, values map[string]string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// goRedisClient adapts *redis.Client to redisClient.
type goRedisClient struct {
	client *redis.Client
}

func (g *goRedisClient) MGet(ctx context.Context, keys ...string) ([]interface{}, error) {
	return g.client.MGet(ctx, keys...).Result()
}

// SetMany writes every value in one pipeline.
func (g *goRedisClient) SetMany(ctx context.Context, values map[string]string, ttl time.Duration) error {
	pipe := g.client.Pipeline()
	for k, v := range values {
		pipe.Set(ctx, k, v, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (g *goRedisClient) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

func (g *goRedisClient) Close() error {
	return g.client.Close()
}

// RedisConfig configures the shared store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisStore implements port.PriceStore. Keys are <prefix><SYMBOL>, values decimal strings.
type RedisStore struct {
	client    redisClient
	keyPrefix string
	ttl       time.Duration
}

var _ port.PriceStore = (*RedisStore)(nil)

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	client := &goRedisClient{client: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return newRedisStore(client, cfg.KeyPrefix, cfg.TTL), nil
}

func newRedisStore(client redisClient, keyPrefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// GetPrices returns the stored prices; symbols without a value are absent from the map.
func (s *RedisStore) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	out := make(map[string]float64, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = s.keyPrefix + key(sym)
	}

	values, err := s.client.MGet(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("redis MGET: %w", err)
	}
	for i, v := range values {
		if i >= len(symbols) {
			break
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(str, 64)
		if err != nil || price <= 0 {
			continue
		}
		out[key(symbols[i])] = price
	}
	return out, nil
}

func (s *RedisStore) SetPrices(ctx context.Context, prices map[string]float64) error {
	if len(prices) == 0 {
		return nil
	}
	values := make(map[string]string, len(prices))
	for sym, price := range prices {
		values[s.keyPrefix+key(sym)] = strconv.FormatFloat(price, 'f', -1, 64)
	}
	if err := s.client.SetMany(ctx, values, s.ttl); err != nil {
		return fmt.Errorf("redis SET: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
