// Package coingecko fetches coin data from the CoinGecko v3 REST API and
// assembles it into payload sources.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Client is a CoinGecko API client. 429 and 5xx responses are retried up to
// Config.RetryMax times; each attempt is bounded by Config.Timeout.
type Client struct {
	logger  logger.Logger
	cfg     *Config
	baseURL *url.URL
	http    *retryablehttp.Client
}

// NewClient creates a CoinGecko client
func NewClient(log logger.Logger, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, ErrInvalidConfig(err.Error())
	}

	rclient := &retryablehttp.Client{
		HTTPClient:   &http.Client{Timeout: cfg.Timeout},
		Logger:       &leveledLogger{logger: log},
		RetryWaitMin: cfg.RetryWaitMin,
		RetryWaitMax: cfg.RetryWaitMax,
		RetryMax:     cfg.RetryMax,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	return &Client{
		logger:  log,
		cfg:     cfg,
		baseURL: base,
		http:    rclient,
	}, nil
}

// ListCoins returns every coin CoinGecko knows about
func (c *Client) ListCoins(ctx context.Context) ([]payload.Coin, error) {
	var coins []payload.Coin
	if err := c.get(ctx, "/coins/list", nil, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// CoinsByCategory returns the first page of USD markets in a category
func (c *Client) CoinsByCategory(ctx context.Context, category string) ([]payload.Coin, error) {
	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("category", category)
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(c.cfg.MarketsPerPage))
	query.Set("page", "1")
	query.Set("sparkline", "false")

	var markets []marketResponse
	if err := c.get(ctx, "/coins/markets", query, &markets); err != nil {
		return nil, err
	}
	coins := make([]payload.Coin, 0, len(markets))
	for _, m := range markets {
		if m.ID == "" {
			continue
		}
		coins = append(coins, payload.Coin{ID: m.ID, Symbol: m.Symbol, Name: m.Name})
	}
	return coins, nil
}

// Candidates implements CandidateSource with a direct category listing
func (c *Client) Candidates(ctx context.Context, category string) ([]payload.Coin, error) {
	return c.CoinsByCategory(ctx, category)
}

// CoinDetail returns the USD market detail of one coin
func (c *Client) CoinDetail(ctx context.Context, id string) (*payload.Detail, error) {
	query := url.Values{}
	query.Set("localization", "false")
	query.Set("tickers", "false")
	query.Set("market_data", "true")
	query.Set("community_data", "false")
	query.Set("developer_data", "false")
	query.Set("sparkline", "false")

	var resp detailResponse
	if err := c.get(ctx, "/coins/"+url.PathEscape(id), query, &resp); err != nil {
		return nil, err
	}
	return resp.toDetail(), nil
}

// MarketChart returns the USD price series of one coin over days days
func (c *Client) MarketChart(ctx context.Context, id string, days int) (*payload.Chart, error) {
	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("days", strconv.Itoa(days))

	var resp chartResponse
	path := "/coins/" + url.PathEscape(id) + "/market_chart"
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	chart, err := resp.toChart(days)
	if err != nil {
		return nil, ErrDecode(path, err)
	}
	return chart, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return ErrTransport(path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(c.cfg.keyHeader(), c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ErrTransport(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.Warn("coingecko request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return ErrStatus(path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ErrDecode(path, err)
	}
	return nil
}

// leveledLogger adapts logger.Logger to retryablehttp.LeveledLogger
type leveledLogger struct {
	logger logger.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, fields(keysAndValues)...)
}

func fields(keysAndValues []any) []zap.Field {
	out := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		out = append(out, zap.Any(key, keysAndValues[i+1]))
	}
	return out
}
