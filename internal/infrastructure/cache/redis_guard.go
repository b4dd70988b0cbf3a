package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dealdesk/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// RedisSubmissionGuard implements SubmissionGuard using Redis. Suitable for
// distributed deployments where multiple instances need to share claim state.
type RedisSubmissionGuard struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSubmissionGuard creates a Redis-based submission guard
func NewRedisSubmissionGuard(cfg RedisConfig) (*RedisSubmissionGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSubmissionGuard{
		client:    client,
		keyPrefix: "deal:submission:",
	}, nil
}

// NewRedisSubmissionGuardWithClient creates a guard with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisSubmissionGuardWithClient(client *redis.Client, keyPrefix string) *RedisSubmissionGuard {
	if keyPrefix == "" {
		keyPrefix = "deal:submission:"
	}
	return &RedisSubmissionGuard{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Claim marks a submission key as in flight with a TTL.
// Uses SETNX so concurrent submissions of the same draft race atomically.
func (g *RedisSubmissionGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	claimed, err := g.client.SetNX(ctx, g.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim submission key: %w", err)
	}
	return claimed, nil
}

// Release frees a claimed key after a failed submission
func (g *RedisSubmissionGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release submission key: %w", err)
	}
	return nil
}

// IsClaimed reports whether a submission key is currently held
func (g *RedisSubmissionGuard) IsClaimed(ctx context.Context, key string) (bool, error) {
	exists, err := g.client.Exists(ctx, g.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check submission key: %w", err)
	}
	return exists > 0, nil
}

// Close closes the Redis client
func (g *RedisSubmissionGuard) Close() error {
	return g.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (g *RedisSubmissionGuard) GetClient() *redis.Client {
	return g.client
}

// Ensure RedisSubmissionGuard implements SubmissionGuard
var _ shared.SubmissionGuard = (*RedisSubmissionGuard)(nil)
