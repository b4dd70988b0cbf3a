package cache

import (
	"fmt"

	"github.com/dealdesk/backend/internal/domain/shared"
	"github.com/dealdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SubmissionGuardFactory creates submission guards based on configuration
type SubmissionGuardFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SubmissionGuardFactoryOption is a functional option for configuring the factory
type SubmissionGuardFactoryOption func(*SubmissionGuardFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SubmissionGuardFactoryOption {
	return func(f *SubmissionGuardFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory guard
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SubmissionGuardFactoryOption {
	return func(f *SubmissionGuardFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSubmissionGuardFactory creates a new factory
func NewSubmissionGuardFactory(cfg config.RedisConfig, opts ...SubmissionGuardFactoryOption) *SubmissionGuardFactory {
	f := &SubmissionGuardFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisGuard creates a Redis-based submission guard
func (f *SubmissionGuardFactory) CreateRedisGuard() (shared.SubmissionGuard, error) {
	guard, err := NewRedisSubmissionGuard(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis submission guard: %w", err)
	}

	return guard, nil
}

// CreateMemoryGuard creates an in-memory submission guard.
// WARNING: in-memory guards do not share claims across process instances,
// which can let the same draft through twice in distributed deployments.
func (f *SubmissionGuardFactory) CreateMemoryGuard() shared.SubmissionGuard {
	return NewMemorySubmissionGuard()
}

// CreateGuard creates a submission guard based on whether Redis is available.
// It tries Redis first and falls back to in-memory when fallback is allowed.
func (f *SubmissionGuardFactory) CreateGuard() (shared.SubmissionGuard, error) {
	guard, err := f.CreateRedisGuard()
	if err == nil {
		f.logger.Info("using Redis submission guard")
		return guard, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for submission dedup but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory submission guard. "+
		"Duplicate submissions may slip through in distributed deployments.",
		zap.Error(err),
	)
	return f.CreateMemoryGuard(), nil
}
