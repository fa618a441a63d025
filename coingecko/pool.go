package coingecko

import (
	"context"
	"errors"
	"strings"

	"github.com/dailyyoga/coinframe/cache"
	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"go.uber.org/zap"
)

// CategoryLister lists the coins of a category
type CategoryLister interface {
	CoinsByCategory(ctx context.Context, category string) ([]payload.Coin, error)
}

// Pool keeps the coin list of one category in process, refreshed in the
// background. Other categories are passed through to the lister.
type Pool struct {
	logger   logger.Logger
	category string
	lister   CategoryLister
	coins    cache.Syncable[[]payload.Coin]
}

// NewPool creates a pool for category. Start must be called before use.
func NewPool(log logger.Logger, lister CategoryLister, category string, cfg *cache.SyncableConfig) (*Pool, error) {
	if cfg == nil {
		cfg = cache.DefaultSyncableConfig()
	} else {
		c := *cfg
		cfg = &c
	}
	if cfg.Name == "" {
		cfg.Name = "coingecko-pool-" + category
	}

	p := &Pool{
		logger:   log,
		category: category,
		lister:   lister,
	}
	coins, err := cache.NewSyncable(log, cfg, p.load)
	if err != nil {
		return nil, err
	}
	p.coins = coins
	return p, nil
}

// Start loads the category and begins periodic resyncs
func (p *Pool) Start() error {
	return p.coins.Start()
}

// Stop ends periodic resyncs
func (p *Pool) Stop() {
	p.coins.Stop()
}

// Candidates implements CandidateSource
func (p *Pool) Candidates(ctx context.Context, category string) ([]payload.Coin, error) {
	if !strings.EqualFold(category, p.category) {
		return p.lister.CoinsByCategory(ctx, category)
	}
	coins := p.coins.Get()
	if len(coins) == 0 {
		return nil, ErrNoCandidates
	}
	return coins, nil
}

func (p *Pool) load(ctx context.Context) ([]payload.Coin, error) {
	coins, err := p.lister.CoinsByCategory(ctx, p.category)
	if err != nil {
		var status *StatusError
		if errors.As(err, &status) && !status.Temporary() {
			return nil, cache.Permanent(err)
		}
		return nil, err
	}
	if len(coins) == 0 {
		return nil, cache.Permanent(ErrNoCandidates)
	}
	p.logger.Info("candidate pool synced",
		zap.String("category", p.category),
		zap.Int("coins", len(coins)),
	)
	return coins, nil
}
