package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailJSON = `{
	"id": "higher",
	"symbol": "higher",
	"name": "Higher",
	"image": {"thumb": "t.png", "small": "s.png", "large": "l.png"},
	"market_data": {
		"current_price": {"usd": 0.00512345, "eur": 0.0047},
		"market_cap": {"usd": null}
	}
}`

const chartJSON = `{"prices": [[1700000000000, 1.5], [1700003600000, 1.75]]}`

func newTestClient(t *testing.T, handler http.Handler, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &Config{
		BaseURL:      srv.URL + "/api/v3",
		APIKey:       "secret",
		RetryMax:     1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
	}
	for _, m := range mutate {
		m(cfg)
	}
	c, err := NewClient(logger.NewNop(), cfg)
	require.NoError(t, err)
	return c
}

func TestClient_CoinDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/coins/higher", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("localization"))
		assert.Equal(t, "secret", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(detailJSON))
	}))

	d, err := c.CoinDetail(context.Background(), "higher")
	require.NoError(t, err)
	assert.Equal(t, "Higher", d.Name)
	assert.Equal(t, "l.png", d.ImageURL)
	require.True(t, d.PriceUSD.Valid)
	assert.Equal(t, "0.00512345", d.PriceUSD.Decimal.String())
	assert.False(t, d.MarketCapUSD.Valid)
}

func TestClient_ProKeyHeader(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-cg-pro-api-key"))
		assert.Empty(t, r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`[]`))
	}), func(cfg *Config) { cfg.APIKeyType = KeyTypePro })

	coins, err := c.ListCoins(context.Background())
	require.NoError(t, err)
	assert.Empty(t, coins)
}

func TestClient_MarketChart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/coins/higher/market_chart", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(chartJSON))
	}))

	chart, err := c.MarketChart(context.Background(), "higher", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, chart.Days)
	require.Len(t, chart.Prices, 2)
	assert.Equal(t, 1.75, chart.Prices[1].Price)
	assert.Equal(t, time.UnixMilli(1700003600000).UTC(), chart.Prices[1].Time)
}

func TestClient_MarketChart_MalformedPoint(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices": [[1700000000000]]}`))
	}))

	_, err := c.MarketChart(context.Background(), "higher", 1)
	assert.ErrorIs(t, err, ErrDecodeResponse)
}

func TestClient_CoinsByCategory(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/coins/markets", r.URL.Path)
		assert.Equal(t, "base-meme-coins", r.URL.Query().Get("category"))
		assert.Equal(t, "250", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`[{"id":"a","symbol":"a","name":"A"},{"id":"","symbol":"x"},{"id":"b","symbol":"b","name":"B"}]`))
	}))

	coins, err := c.CoinsByCategory(context.Background(), "base-meme-coins")
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, "b", coins[1].ID)
}

func TestClient_RetriesTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(detailJSON))
	}))

	_, err := c.CoinDetail(context.Background(), "higher")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_StatusError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.CoinDetail(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusNotFound, status.Code)
	assert.False(t, status.Temporary())
	assert.EqualValues(t, 1, calls.Load(), "4xx must not be retried")
}

func TestClient_ExhaustedRetriesReturnStatus(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.ListCoins(context.Background())
	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.True(t, status.Temporary())
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_DecodeError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))

	_, err := c.ListCoins(context.Background())
	assert.ErrorIs(t, err, ErrDecodeResponse)
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListCoins(ctx)
	assert.ErrorIs(t, err, ErrRequest)
}

func TestConfig_MergeDefaultsAndValidate(t *testing.T) {
	cfg := (&Config{}).MergeDefaults()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, KeyTypeDemo, cfg.APIKeyType)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())

	pro := (&Config{APIKeyType: KeyTypePro}).MergeDefaults()
	assert.Equal(t, DefaultProBaseURL, pro.BaseURL)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.BaseURL = "/api" }},
		{"bad key type", func(c *Config) { c.APIKeyType = "enterprise" }},
		{"negative retries", func(c *Config) { c.RetryMax = -1 }},
		{"inverted waits", func(c *Config) { c.RetryWaitMin = time.Minute }},
		{"page too large", func(c *Config) { c.MarketsPerPage = 500 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
