package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dailyyoga/coinframe/db"
	"github.com/dailyyoga/coinframe/kvstore"
	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"github.com/dailyyoga/coinframe/refresh"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mu      sync.Mutex
	calls   []payload.Selector
	payload *payload.Payload
	outcome refresh.Outcome
	err     error
}

func (f *fakeResolver) Resolve(_ context.Context, sel payload.Selector) (*payload.Payload, refresh.Outcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sel)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.outcome, f.err
	}
	return f.payload, f.outcome, nil
}

func (f *fakeResolver) lastSelector() payload.Selector {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeHistory struct {
	snapshots []db.Snapshot
	limit     int
	err       error
}

func (h *fakeHistory) Recent(_ context.Context, limit int) ([]db.Snapshot, error) {
	h.limit = limit
	return h.snapshots, h.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return kvstore.ErrUnavailable }

func samplePayload() *payload.Payload {
	return &payload.Payload{
		Subject: payload.Coin{ID: "higher", Symbol: "hgr", Name: "Higher"},
		Detail: payload.Detail{
			ID:       "higher",
			Name:     "Higher",
			PriceUSD: decimal.NewNullDecimal(decimal.RequireFromString("0.012345")),
		},
		Chart:       payload.Chart{Days: 7},
		Image:       []byte("\x89PNG fake"),
		ImageType:   "image/png",
		GeneratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestServer(t *testing.T, resolver Resolver, opts ...Option) *Server {
	t.Helper()
	s, err := New(logger.NewNop(), &Config{BaseURL: "https://frame.example/"}, resolver, kvstore.NewMemory(), opts...)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRandomCoin_Source(t *testing.T) {
	tests := []struct {
		outcome refresh.Outcome
		want    string
	}{
		{refresh.OutcomeRefreshed, "live"},
		{refresh.OutcomeHit, "cache"},
		{refresh.OutcomeWaited, "cache"},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			resolver := &fakeResolver{payload: samplePayload(), outcome: tt.outcome}
			rec := do(t, newTestServer(t, resolver), "/api/random-coin")

			require.Equal(t, http.StatusOK, rec.Code)
			var body coinResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Source)
			assert.Equal(t, "higher", body.Coin.ID)
			assert.Equal(t, payload.Random(DefaultCategory, 7), resolver.lastSelector())
		})
	}
}

const errKey = "coinframe:payload:random:base-meme-coins:7d"

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		retryAfter bool
		wantBody   string
	}{
		{"timed out", refresh.ErrTimedOut(errKey, 10, 5*time.Second), http.StatusServiceUnavailable, true, "refresh in progress, retry later"},
		{"fetch", refresh.ErrFetch(errKey, errors.New("429 from 10.0.0.7")), http.StatusBadGateway, false, "upstream data source unavailable"},
		{"store", refresh.ErrStore("get", errKey, kvstore.ErrUnavailable), http.StatusInternalServerError, false, "internal error"},
		{"render", refresh.ErrRender(errKey, errors.New("font")), http.StatusInternalServerError, false, "internal error"},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, true, "request canceled"},
		{"bad selector", payload.ErrInvalidSelector("days 0 must be within 1..365"), http.StatusBadRequest, false, "payload: invalid selector: days 0 must be within 1..365"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(t, &fakeResolver{err: tt.err}), "/api/random-coin")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After") != "")
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Error)
			assert.NotContains(t, rec.Body.String(), errKey)
		})
	}
}

func TestFrameImage(t *testing.T) {
	p := samplePayload()
	rec := do(t, newTestServer(t, &fakeResolver{payload: p, outcome: refresh.OutcomeHit}), "/api/frame-image")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
	assert.Equal(t, p.Image, rec.Body.Bytes())
}

func TestFrameImage_NoImage(t *testing.T) {
	p := samplePayload()
	p.Image = nil
	rec := do(t, newTestServer(t, &fakeResolver{payload: p, outcome: refresh.OutcomeHit}), "/api/frame-image")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOG(t *testing.T) {
	resolver := &fakeResolver{payload: samplePayload(), outcome: refresh.OutcomeHit}
	s := newTestServer(t, resolver)

	rec := do(t, s, "/api/og?id=higher")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload.Exact("higher", 7), resolver.lastSelector())

	rec = do(t, s, "/api/og?id=higher&days=30")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload.Exact("higher", 30), resolver.lastSelector())

	for _, target := range []string{"/api/og", "/api/og?id=higher&days=0", "/api/og?id=higher&days=366", "/api/og?id=higher&days=week"} {
		rec = do(t, s, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHistory(t *testing.T) {
	resolver := &fakeResolver{payload: samplePayload()}

	rec := do(t, newTestServer(t, resolver), "/api/history")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	history := &fakeHistory{snapshots: []db.Snapshot{{ID: 1, CoinID: "higher"}}}
	s := newTestServer(t, resolver, WithHistory(history))

	rec = do(t, s, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, history.limit)
	var body historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Snapshots, 1)
	assert.Equal(t, "higher", body.Snapshots[0].CoinID)

	rec = do(t, s, "/api/history?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, history.limit)

	rec = do(t, s, "/api/history?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndex(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeResolver{payload: samplePayload(), outcome: refresh.OutcomeHit}), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="fc:frame"`)
	assert.Contains(t, body, "Random Swap: Higher")
	assert.Contains(t, body, "$0.012345")
	assert.Contains(t, body, `src="/api/og?id=higher&amp;days=7"`)
	assert.Contains(t, body, "https://frame.example/api/og?id=higher")
	assert.Contains(t, body, "Trade")
}

func TestIndex_FallsBackWithoutCoin(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeResolver{err: refresh.ErrTimedOut("k", 10, time.Second)}), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No coin selected.")
	assert.Contains(t, body, "social-swap/image")
}

func TestHealth(t *testing.T) {
	resolver := &fakeResolver{payload: samplePayload()}

	rec := do(t, newTestServer(t, resolver), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	s, err := New(logger.NewNop(), nil, resolver, failingPinger{})
	require.NoError(t, err)
	rec = do(t, s, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	s := newTestServer(t, &fakeResolver{payload: samplePayload()})
	assert.Equal(t, http.StatusNotFound, do(t, s, "/nope").Code)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/random-coin", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &fakeResolver{payload: samplePayload(), outcome: refresh.OutcomeHit})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/random-coin")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"exact selector", (&Config{Selector: payload.Exact("higher", 30)}).MergeDefaults(), false},
		{"bad selector", (&Config{Selector: payload.Exact("", 30)}).MergeDefaults(), true},
		{"og days", (&Config{OGDays: 400}).MergeDefaults(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Equal(t, "https://a.example", (&Config{BaseURL: "https://a.example/"}).MergeDefaults().BaseURL)
	assert.True(t, strings.HasPrefix(DefaultConfig().Addr, ":"))
}
