package coingecko

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dailyyoga/coinframe/cache"
	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	mu        sync.Mutex
	detailErr error
	chartErr  error
	detailIDs []string
}

func (f *fakeUpstream) CoinDetail(_ context.Context, id string) (*payload.Detail, error) {
	f.mu.Lock()
	f.detailIDs = append(f.detailIDs, id)
	f.mu.Unlock()
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return &payload.Detail{
		ID:       id,
		Symbol:   "hgr",
		Name:     "Higher",
		PriceUSD: decimal.NewNullDecimal(decimal.RequireFromString("1.25")),
	}, nil
}

func (f *fakeUpstream) MarketChart(_ context.Context, id string, days int) (*payload.Chart, error) {
	if f.chartErr != nil {
		return nil, f.chartErr
	}
	return &payload.Chart{Days: days, Prices: []payload.PricePoint{{Time: time.Unix(0, 0), Price: 1}}}, nil
}

type fakeCandidates struct {
	coins []payload.Coin
	err   error
	calls atomic.Int32
}

func (f *fakeCandidates) Candidates(context.Context, string) ([]payload.Coin, error) {
	f.calls.Add(1)
	return f.coins, f.err
}

func (f *fakeCandidates) CoinsByCategory(ctx context.Context, category string) ([]payload.Coin, error) {
	return f.Candidates(ctx, category)
}

func TestFetcher_Exact(t *testing.T) {
	up := &fakeUpstream{}
	f := NewFetcher(logger.NewNop(), up, nil)

	src, err := f.Fetch(context.Background(), payload.Exact("higher", 7))
	require.NoError(t, err)
	assert.Equal(t, payload.Coin{ID: "higher", Symbol: "hgr", Name: "Higher"}, src.Subject)
	assert.Equal(t, 7, src.Chart.Days)
	assert.Equal(t, "1.25", src.Detail.PriceUSD.Decimal.String())
}

func TestFetcher_NormalizesRawSelector(t *testing.T) {
	up := &fakeUpstream{}
	f := NewFetcher(logger.NewNop(), up, nil)

	src, err := f.Fetch(context.Background(), payload.Selector{Mode: payload.ModeExact, CoinID: " HIGHER", Days: 7})
	require.NoError(t, err)
	assert.Equal(t, "higher", src.Subject.ID)
	assert.Equal(t, []string{"higher"}, up.detailIDs)
}

func TestFetcher_RandomUsesPicker(t *testing.T) {
	up := &fakeUpstream{}
	cands := &fakeCandidates{coins: []payload.Coin{
		{ID: "a", Symbol: "a", Name: "A"},
		{ID: "b", Symbol: "b", Name: "B"},
	}}
	f := NewFetcher(logger.NewNop(), up, cands, WithPicker(func(n int) int { return n - 1 }))

	src, err := f.Fetch(context.Background(), payload.Random("base-meme-coins", 30))
	require.NoError(t, err)
	assert.Equal(t, "b", src.Subject.ID)
	assert.Equal(t, "B", src.Subject.Name, "candidate name wins over detail name")
	assert.Equal(t, []string{"b"}, up.detailIDs)
}

func TestFetcher_NoCandidates(t *testing.T) {
	f := NewFetcher(logger.NewNop(), &fakeUpstream{}, &fakeCandidates{})
	_, err := f.Fetch(context.Background(), payload.Random("empty", 30))
	assert.ErrorIs(t, err, ErrNoCandidates)

	f = NewFetcher(logger.NewNop(), &fakeUpstream{}, nil)
	_, err = f.Fetch(context.Background(), payload.Random("empty", 30))
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestFetcher_PropagatesUpstreamErrors(t *testing.T) {
	boom := errors.New("chart down")
	f := NewFetcher(logger.NewNop(), &fakeUpstream{chartErr: boom}, nil)

	_, err := f.Fetch(context.Background(), payload.Exact("higher", 7))
	assert.ErrorIs(t, err, boom)

	cands := &fakeCandidates{err: ErrStatus("/coins/markets", http.StatusTooManyRequests)}
	f = NewFetcher(logger.NewNop(), &fakeUpstream{}, cands)
	_, err = f.Fetch(context.Background(), payload.Random("x", 7))
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestFetcher_InvalidSelector(t *testing.T) {
	f := NewFetcher(logger.NewNop(), &fakeUpstream{}, nil)
	_, err := f.Fetch(context.Background(), payload.Exact("", 7))
	assert.Error(t, err)
}

func TestPool_ServesSyncedCategory(t *testing.T) {
	lister := &fakeCandidates{coins: []payload.Coin{{ID: "a"}}}
	pool, err := NewPool(logger.NewNop(), lister, "base-meme-coins", &cache.SyncableConfig{SyncInterval: time.Hour})
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	defer pool.Stop()

	for i := 0; i < 3; i++ {
		coins, err := pool.Candidates(context.Background(), "Base-Meme-Coins")
		require.NoError(t, err)
		assert.Equal(t, "a", coins[0].ID)
	}
	assert.EqualValues(t, 1, lister.calls.Load())

	_, err = pool.Candidates(context.Background(), "other")
	require.NoError(t, err)
	assert.EqualValues(t, 2, lister.calls.Load())
}

func TestPool_StartFailsOnPermanentError(t *testing.T) {
	lister := &fakeCandidates{err: ErrStatus("/coins/markets", http.StatusUnauthorized)}
	pool, err := NewPool(logger.NewNop(), lister, "c", &cache.SyncableConfig{RetryBackoff: time.Millisecond})
	require.NoError(t, err)

	assert.ErrorIs(t, pool.Start(), ErrUnexpectedStatus)
	assert.EqualValues(t, 1, lister.calls.Load())
}

func TestPool_EmptyBeforeStart(t *testing.T) {
	pool, err := NewPool(logger.NewNop(), &fakeCandidates{}, "c", nil)
	require.NoError(t, err)
	_, err = pool.Candidates(context.Background(), "c")
	assert.ErrorIs(t, err, ErrNoCandidates)
}
