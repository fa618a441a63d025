package cron

import (
	"context"
	"errors"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"github.com/dailyyoga/coinframe/refresh"
	"go.uber.org/zap"
)

// WarmChainName is the chain the warmer is registered under
const WarmChainName = "warm"

// Resolver is the part of the refresh coordinator the warmer drives
type Resolver interface {
	Resolve(ctx context.Context, sel payload.Selector) (*payload.Payload, refresh.Outcome, error)
}

// WarmTask keeps one selector's payload live so requests rarely pay the
// miss latency
type WarmTask struct {
	sel      payload.Selector
	resolver Resolver
	cfg      *WarmConfig
	logger   logger.Logger
}

// NewWarmTask creates a task warming sel; cfg supplies the run timeout
func NewWarmTask(log logger.Logger, resolver Resolver, sel payload.Selector, cfg *WarmConfig) *WarmTask {
	if cfg == nil {
		cfg = DefaultWarmConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	return &WarmTask{sel: sel, resolver: resolver, cfg: cfg, logger: log}
}

func (t *WarmTask) Name() string {
	return "warm:" + t.sel.Key()
}

// Run resolves the selector once. Another caller holding the lock, an
// exhausted wait budget and scheduler shutdown are not failures.
func (t *WarmTask) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	p, outcome, err := t.resolver.Resolve(ctx, t.sel)
	switch {
	case err == nil:
		t.logger.Debug("payload warm",
			zap.String("selector", t.sel.Key()),
			zap.String("outcome", string(outcome)),
			zap.String("coin_id", p.Subject.ID),
		)
		return nil
	case errors.Is(err, refresh.ErrRefreshTimedOut), outcome == refresh.OutcomeCanceled:
		t.logger.Warn("warm run gave up",
			zap.String("selector", t.sel.Key()),
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
		return nil
	default:
		return err
	}
}

// RegisterWarmer adds the warm chain for cfg.Selectors to c. It is a no-op
// when the warmer is disabled.
func RegisterWarmer(c Cron, log logger.Logger, resolver Resolver, cfg *WarmConfig) error {
	if cfg == nil {
		cfg = DefaultWarmConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if !cfg.Enabled {
		log.Info("cache warmer disabled")
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tasks := make([]Task, len(cfg.Selectors))
	for i, sel := range cfg.Selectors {
		tasks[i] = NewWarmTask(log, resolver, sel, cfg)
	}
	return c.AddTasks(WarmChainName, cfg.Spec, tasks...)
}
