// Package refresh coordinates stampede-safe regeneration of cached payloads.
//
// For a selector, GetOrRefresh serves the cached payload when one is live.
// On a miss, callers race for a short-lived lock with a single
// set-if-absent. The winner fetches, renders and publishes; losers poll the
// cache with a bounded budget and never fetch themselves. The lock is never
// deleted: it expires after LockTTL, so a crashed or failed winner blocks
// regeneration for at most that long.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dailyyoga/coinframe/kvstore"
	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fetcher loads the source data for a selector
type Fetcher interface {
	Fetch(ctx context.Context, sel payload.Selector) (*payload.Source, error)
}

// Renderer turns a source into an image
type Renderer interface {
	Render(ctx context.Context, src *payload.Source) ([]byte, error)
	ContentType() string
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithObservers registers observers notified after every call
func WithObservers(observers ...Observer) Option {
	return func(c *Coordinator) {
		c.observers = append(c.observers, observers...)
	}
}

// WithClock sets the time source for lock and payload timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithOwner sets the owner id written into lock entries
func WithOwner(owner string) Option {
	return func(c *Coordinator) {
		c.owner = owner
	}
}

// Coordinator implements the lookup, lock, refresh and wait cycle
type Coordinator struct {
	logger    logger.Logger
	store     kvstore.Store
	fetcher   Fetcher
	renderer  Renderer
	cfg       Config
	observers []Observer
	now       func() time.Time
	owner     string
}

// New creates a Coordinator
func New(log logger.Logger, store kvstore.Store, fetcher Fetcher, renderer Renderer, cfg *Config, opts ...Option) (*Coordinator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || fetcher == nil || renderer == nil {
		return nil, fmt.Errorf("refresh: store, fetcher and renderer are required")
	}

	c := &Coordinator{
		logger:   log,
		store:    store,
		fetcher:  fetcher,
		renderer: renderer,
		cfg:      *cfg,
		now:      time.Now,
		owner:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the effective configuration
func (c *Coordinator) Config() Config {
	return c.cfg
}

// CacheKey returns the key a selector's payload is stored under
func (c *Coordinator) CacheKey(sel payload.Selector) string {
	return c.cfg.KeyPrefix + ":payload:" + sel.Key()
}

// LockKey returns the lock key guarding a cache key
func LockKey(cacheKey string) string {
	return cacheKey + ":lock"
}

// result is the internal outcome of one call
type result struct {
	payload  *payload.Payload
	outcome  Outcome
	attempts int
	err      error
}

// GetOrRefresh returns the live payload for sel, regenerating it when no
// live entry exists and no other caller is already doing so.
func (c *Coordinator) GetOrRefresh(ctx context.Context, sel payload.Selector) (*payload.Payload, error) {
	p, _, err := c.Resolve(ctx, sel)
	return p, err
}

// Resolve is GetOrRefresh that also reports how the call ended. The outcome
// is empty when sel is invalid.
func (c *Coordinator) Resolve(ctx context.Context, sel payload.Selector) (*payload.Payload, Outcome, error) {
	sel = sel.Normalize()
	if err := sel.Validate(); err != nil {
		return nil, "", err
	}

	start := time.Now()
	key := c.CacheKey(sel)
	res := c.run(ctx, sel, key)
	elapsed := time.Since(start)

	c.log(key, res, elapsed)
	c.notify(ctx, Event{
		Key:      key,
		Selector: sel,
		Outcome:  res.outcome,
		Attempts: res.attempts,
		Duration: elapsed,
		Err:      res.err,
		Payload:  res.payload,
		At:       c.now(),
	})
	return res.payload, res.outcome, res.err
}

func (c *Coordinator) run(ctx context.Context, sel payload.Selector, key string) result {
	p, err := c.lookup(ctx, key)
	if err == nil {
		return result{payload: p, outcome: OutcomeHit}
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		return failure(err)
	}

	lock := payload.EncodeLock(c.owner, c.now())
	won, err := c.store.SetWithExpiryIfAbsent(ctx, LockKey(key), lock, c.cfg.LockTTL)
	if err != nil {
		return failure(ErrStore("lock", LockKey(key), err))
	}
	if won {
		return c.refresh(ctx, sel, key)
	}
	return c.wait(ctx, key)
}

// lookup returns kvstore.ErrNotFound on a miss
func (c *Coordinator) lookup(ctx context.Context, key string) (*payload.Payload, error) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, err
		}
		return nil, ErrStore("get", key, err)
	}
	p, err := payload.DecodeEntry(data)
	if err != nil {
		return nil, ErrCorrupt(key, err)
	}
	return p, nil
}

// refresh runs the critical section. On failure the lock is left to expire.
func (c *Coordinator) refresh(ctx context.Context, sel payload.Selector, key string) result {
	src, err := c.fetcher.Fetch(ctx, sel)
	if err != nil {
		return result{outcome: OutcomeFetchFailed, err: ErrFetch(key, err)}
	}

	image, err := c.renderer.Render(ctx, src)
	if err != nil {
		return result{outcome: OutcomeRenderFailed, err: ErrRender(key, err)}
	}

	p := payload.New(src, image, c.renderer.ContentType(), c.now())
	data, err := payload.EncodeEntry(p)
	if err != nil {
		return result{outcome: OutcomeRenderFailed, err: ErrRender(key, err)}
	}

	if err := c.store.SetWithExpiry(ctx, key, data, c.cfg.CacheTTL); err != nil {
		return result{outcome: OutcomePublishFailed, err: ErrStore("publish", key, err)}
	}
	return result{payload: p, outcome: OutcomeRefreshed}
}

// wait polls the cache until another caller publishes or the budget runs out
func (c *Coordinator) wait(ctx context.Context, key string) result {
	var waited time.Duration
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for attempt := 1; attempt <= c.cfg.RetryBudget; attempt++ {
		d := c.cfg.delay(attempt)
		timer.Reset(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			return result{outcome: OutcomeCanceled, attempts: attempt - 1, err: ctx.Err()}
		}
		waited += d

		p, err := c.lookup(ctx, key)
		if err == nil {
			return result{payload: p, outcome: OutcomeWaited, attempts: attempt}
		}
		if !errors.Is(err, kvstore.ErrNotFound) {
			res := failure(err)
			res.attempts = attempt
			return res
		}
	}

	return result{
		outcome:  OutcomeTimedOut,
		attempts: c.cfg.RetryBudget,
		err:      ErrTimedOut(key, c.cfg.RetryBudget, waited),
	}
}

func failure(err error) result {
	switch {
	case errors.Is(err, ErrCorruptCacheEntry):
		return result{outcome: OutcomeCorruptEntry, err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return result{outcome: OutcomeCanceled, err: err}
	default:
		return result{outcome: OutcomeStoreUnavailable, err: err}
	}
}

func (c *Coordinator) log(key string, res result, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("key", key),
		zap.String("outcome", string(res.outcome)),
		zap.Int("attempts", res.attempts),
		zap.Duration("elapsed", elapsed),
	}
	if res.payload != nil {
		fields = append(fields, zap.String("coin_id", res.payload.Subject.ID))
	}

	switch res.outcome {
	case OutcomeHit:
		c.logger.Debug("payload served from cache", fields...)
	case OutcomeRefreshed:
		c.logger.Info("payload refreshed", fields...)
	case OutcomeWaited:
		c.logger.Debug("payload published by another caller", fields...)
	case OutcomeTimedOut, OutcomeCanceled:
		c.logger.Warn("gave up waiting for payload", append(fields, zap.Error(res.err))...)
	default:
		c.logger.Error("payload refresh failed", append(fields, zap.Error(res.err))...)
	}
}

func (c *Coordinator) notify(ctx context.Context, ev Event) {
	for _, o := range c.observers {
		c.observe(ctx, o, ev)
	}
}

func (c *Coordinator) observe(ctx context.Context, o Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("observer panicked",
				zap.String("key", ev.Key),
				zap.Any("panic", r),
			)
		}
	}()
	o.Observe(ctx, ev)
}
