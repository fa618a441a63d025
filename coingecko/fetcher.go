package coingecko

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Upstream is the per-coin part of the CoinGecko API a Fetcher needs
type Upstream interface {
	CoinDetail(ctx context.Context, id string) (*payload.Detail, error)
	MarketChart(ctx context.Context, id string, days int) (*payload.Chart, error)
}

// CandidateSource lists the coins a random selector may draw from
type CandidateSource interface {
	Candidates(ctx context.Context, category string) ([]payload.Coin, error)
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithPicker replaces the random index picker, pick(n) must return [0, n)
func WithPicker(pick func(n int) int) FetcherOption {
	return func(f *Fetcher) {
		f.pick = pick
	}
}

// Fetcher builds payload sources. It never caches; every call goes upstream.
type Fetcher struct {
	logger     logger.Logger
	upstream   Upstream
	candidates CandidateSource
	pick       func(n int) int
}

// NewFetcher creates a Fetcher. candidates may be nil when only exact
// selectors are used.
func NewFetcher(log logger.Logger, upstream Upstream, candidates CandidateSource, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		logger:     log,
		upstream:   upstream,
		candidates: candidates,
		pick:       rand.IntN,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch resolves the selector to a coin and loads its detail and chart
func (f *Fetcher) Fetch(ctx context.Context, sel payload.Selector) (*payload.Source, error) {
	sel = sel.Normalize()
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	subject, err := f.subject(ctx, sel)
	if err != nil {
		return nil, err
	}

	var (
		detail *payload.Detail
		chart  *payload.Chart
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := f.upstream.CoinDetail(gctx, subject.ID)
		if err != nil {
			return fmt.Errorf("coin detail %q: %w", subject.ID, err)
		}
		detail = d
		return nil
	})
	g.Go(func() error {
		c, err := f.upstream.MarketChart(gctx, subject.ID, sel.Days)
		if err != nil {
			return fmt.Errorf("market chart %q: %w", subject.ID, err)
		}
		chart = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if subject.Name == "" {
		subject.Name = detail.Name
	}
	if subject.Symbol == "" {
		subject.Symbol = detail.Symbol
	}
	if detail.ID == "" {
		detail.ID = subject.ID
	}

	f.logger.Debug("fetched source",
		zap.String("selector", sel.Key()),
		zap.String("coin_id", subject.ID),
		zap.Int("points", len(chart.Prices)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &payload.Source{Subject: subject, Detail: detail, Chart: chart}, nil
}

func (f *Fetcher) subject(ctx context.Context, sel payload.Selector) (payload.Coin, error) {
	if sel.Mode == payload.ModeExact {
		return payload.Coin{ID: sel.CoinID}, nil
	}
	if f.candidates == nil {
		return payload.Coin{}, ErrNoCandidates
	}

	coins, err := f.candidates.Candidates(ctx, sel.Category)
	if err != nil {
		return payload.Coin{}, fmt.Errorf("candidates %q: %w", sel.Category, err)
	}
	if len(coins) == 0 {
		return payload.Coin{}, fmt.Errorf("%w in category %q", ErrNoCandidates, sel.Category)
	}
	return coins[f.pick(len(coins))], nil
}
