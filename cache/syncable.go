package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/routine"
	"go.uber.org/zap"
)

// permanentError marks a sync failure that retrying cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that the sync is not retried
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type syncable[T any] struct {
	logger   logger.Logger
	syncFunc SyncFunc[T]
	cfg      SyncableConfig

	mu        sync.RWMutex
	value     T
	updatedAt time.Time

	cancel context.CancelFunc
	once   sync.Once
}

// NewSyncable creates a Syncable; Start must be called before use
func NewSyncable[T any](log logger.Logger, cfg *SyncableConfig, fn SyncFunc[T]) (Syncable[T], error) {
	if cfg == nil {
		cfg = DefaultSyncableConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, ErrNilSyncFunc
	}
	return &syncable[T]{
		logger:   log,
		syncFunc: fn,
		cfg:      *cfg,
	}, nil
}

func (s *syncable[T]) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if err := s.Sync(ctx); err != nil {
		cancel()
		return err
	}

	routine.GoNamedWithContext(ctx, s.logger, s.cfg.Name+"-sync", func(ctx context.Context) {
		ticker := time.NewTicker(s.cfg.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Sync(ctx); err != nil && ctx.Err() == nil {
					s.logger.Error("periodic sync failed, keeping previous value",
						zap.String("cache", s.cfg.Name),
						zap.Time("updated_at", s.UpdatedAt()),
						zap.Error(err),
					)
				}
			case <-ctx.Done():
				s.logger.Info("stopping sync", zap.String("cache", s.cfg.Name))
				return
			}
		}
	})
	return nil
}

func (s *syncable[T]) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

func (s *syncable[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *syncable[T]) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Sync runs the sync function with exponential backoff between attempts
func (s *syncable[T]) Sync(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.cfg.RetryBackoff << (attempt - 1)
			s.logger.Warn("retrying sync after backoff",
				zap.String("cache", s.cfg.Name),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ErrSync(s.cfg.Name, ctx.Err())
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.SyncTimeout)
		value, err := s.syncFunc(attemptCtx)
		cancel()
		if err == nil {
			s.mu.Lock()
			s.value = value
			s.updatedAt = time.Now()
			s.mu.Unlock()
			s.logger.Debug("sync completed",
				zap.String("cache", s.cfg.Name),
				zap.Int("attempt", attempt+1),
			)
			return nil
		}

		lastErr = err
		var perm *permanentError
		if errors.As(err, &perm) || errors.Is(err, context.Canceled) {
			return ErrSync(s.cfg.Name, err)
		}
		s.logger.Warn("sync failed",
			zap.String("cache", s.cfg.Name),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", s.cfg.MaxRetries),
			zap.Error(err),
		)
	}
	return ErrSync(s.cfg.Name, lastErr)
}
