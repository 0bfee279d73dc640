package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyType namespaces Redis keys per concern.
type KeyType string

const (
	CALL_RECORD KeyType = "vaani_call_record"
	CALL_INDEX  KeyType = "vaani_call_index"
)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// ErrKeyNotExist is returned when a key is absent.
var ErrKeyNotExist = redis.Nil

// Service is a thin wrapper over the Redis client exposing only the
// operations the gateway needs: a KV store for record summaries and a sorted
// set acting as the history index.
type Service struct {
	client *redis.Client
}

// NewService connects to Redis and verifies the connection with a ping.
func NewService(cfg *Config) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{client: client}, nil
}

// GenerateKey builds a namespaced key for the given type and identifier.
func (s *Service) GenerateKey(keyType KeyType, identifier string) string {
	return fmt.Sprintf("%s:%s", string(keyType), identifier)
}

// SetValue stores a value with the given TTL (0 means no expiry).
func (s *Service) SetValue(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// GetValue fetches a value by key.
func (s *Service) GetValue(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

// IndexAdd inserts a member into a sorted-set index with the given score.
func (s *Service) IndexAdd(ctx context.Context, key string, score float64, member string) error {
	return s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// IndexRevRange returns members of a sorted-set index in descending score
// order.
func (s *Service) IndexRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return s.client.ZRevRange(ctx, key, start, stop).Result()
}

// Close releases the underlying client.
func (s *Service) Close() error {
	return s.client.Close()
}
