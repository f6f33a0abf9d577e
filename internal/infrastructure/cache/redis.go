package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"report_bridge/internal/domain/report"

	"github.com/redis/go-redis/v9"
)

// Redis shares report definitions between service replicas.
type Redis struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisConfig configures the Redis cache.
type RedisConfig struct {
	// Client is an existing Redis client. If set, the connection fields are ignored.
	Client redis.UniversalClient

	Address   string
	Password  string
	DB        int
	KeyPrefix string
	// DialTimeout defaults to 5 seconds.
	DialTimeout time.Duration
}

// NewRedis creates a Redis cache and checks the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := cfg.Client
	if client == nil {
		if cfg.Address == "" {
			return nil, errors.New("cache: redis address required")
		}
		dial := cfg.DialTimeout
		if dial <= 0 {
			dial = 5 * time.Second
		}
		client = redis.NewClient(&redis.Options{
			Addr:        cfg.Address,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: dial,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	return &Redis{client: client, keyPrefix: cfg.KeyPrefix}, nil
}

// Get returns the cached definition, ok is false when the key is absent.
func (r *Redis) Get(ctx context.Context, key string) (report.Definition, bool, error) {
	data, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return report.Definition{}, false, nil
	}
	if err != nil {
		return report.Definition{}, false, err
	}

	def, err := decodeDefinition(data)
	if err != nil {
		return report.Definition{}, false, fmt.Errorf("cache: corrupt entry %s: %w", key, err)
	}
	return def, true, nil
}

// decodeDefinition keeps numeric defaults as json.Number, like the backend client.
func decodeDefinition(data []byte) (report.Definition, error) {
	var def report.Definition
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&def); err != nil {
		return report.Definition{}, err
	}
	return def, nil
}

// Set stores def as JSON with the given ttl. A zero ttl keeps the key forever.
func (r *Redis) Set(ctx context.Context, key string, def report.Definition, ttl time.Duration) error {
	data, err := json.Marshal(def)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.keyPrefix+key, data, ttl).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
