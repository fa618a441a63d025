package payload

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() *Payload {
	src := &Source{
		Subject: Coin{ID: "higher", Symbol: "higher", Name: "Higher"},
		Detail: &Detail{
			ID:           "higher",
			Symbol:       "higher",
			Name:         "Higher",
			PriceUSD:     decimal.NewNullDecimal(decimal.RequireFromString("0.004512")),
			MarketCapUSD: decimal.NullDecimal{},
		},
		Chart: &Chart{
			Days: 30,
			Prices: []PricePoint{
				{Time: time.Unix(1700000000, 0).UTC(), Price: 0.0041},
				{Time: time.Unix(1700003600, 0).UTC(), Price: 0.0045},
			},
		},
	}
	return New(src, []byte{0x89, 'P', 'N', 'G'}, "image/png", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestEncodeDecodeEntry(t *testing.T) {
	p := testPayload()

	data, err := EncodeEntry(p)
	require.NoError(t, err)

	got, err := DecodeEntry(data)
	require.NoError(t, err)
	assert.Equal(t, p.Subject, got.Subject)
	assert.Equal(t, p.Image, got.Image)
	assert.True(t, p.GeneratedAt.Equal(got.GeneratedAt))
	assert.True(t, got.Detail.PriceUSD.Valid)
	assert.True(t, got.Detail.PriceUSD.Decimal.Equal(decimal.RequireFromString("0.004512")))
	assert.False(t, got.Detail.MarketCapUSD.Valid)
	assert.Len(t, got.Chart.Prices, 2)
}

func TestEncodeEntry_RejectsIncompletePayload(t *testing.T) {
	p := testPayload()
	p.Image = nil

	_, err := EncodeEntry(p)
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestDecodeEntry_Corrupt(t *testing.T) {
	valid, err := EncodeEntry(testPayload())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(valid, &raw))
	raw["v"] = 99
	wrongVersion, err := json.Marshal(raw)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("not json")},
		{"legacy bare coin", []byte(`{"id":"higher","symbol":"higher","name":"Higher"}`)},
		{"wrong version", wrongVersion},
		{"null payload", []byte(`{"v":1,"payload":null}`)},
		{"missing image", []byte(`{"v":1,"payload":{"subject":{"id":"higher"},"generated_at":"2025-03-01T12:00:00Z"}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEntry(tt.data)
			assert.ErrorIs(t, err, ErrCorruptEntry)
		})
	}
}

func TestLockEntry(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	lock, err := DecodeLock(EncodeLock("instance-1", at))
	require.NoError(t, err)
	assert.Equal(t, "instance-1", lock.Owner)
	assert.True(t, at.Equal(lock.AcquiredAt))

	_, err = DecodeLock([]byte(`{}`))
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestSelector_Key(t *testing.T) {
	assert.Equal(t, "exact:higher:30d", Exact("higher", 30).Key())
	assert.Equal(t, "exact:higher:30d", Selector{Mode: ModeExact, CoinID: " HIGHER", Days: 30}.Key())
	assert.Equal(t, "random:base-meme-coins:7d", Random("base-meme-coins", 7).Key())
	assert.NotEqual(t, Exact("higher", 7).Key(), Exact("higher", 30).Key())
}

func TestSelector_Normalize(t *testing.T) {
	raw := Selector{Mode: " Exact", CoinID: " HIGHER ", Category: "Base-Meme-Coins ", Days: 7}
	got := raw.Normalize()
	assert.Equal(t, ModeExact, got.Mode)
	assert.Equal(t, "higher", got.CoinID)
	assert.Equal(t, "base-meme-coins", got.Category)
	assert.Equal(t, 7, got.Days)
	assert.Equal(t, " HIGHER ", raw.CoinID)

	assert.Equal(t, "higher", Exact("  HiGhEr", 7).CoinID)
	assert.Equal(t, "base-meme-coins", Random("BASE-MEME-COINS", 7).Category)
	assert.Equal(t, got.Key(), raw.Key())
}

func TestSelector_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sel     Selector
		wantErr bool
	}{
		{"exact", Exact("higher", 30), false},
		{"random", Random("base-meme-coins", 7), false},
		{"exact without id", Exact(" ", 30), true},
		{"random without category", Random("", 30), true},
		{"zero days", Exact("higher", 0), true},
		{"too many days", Exact("higher", MaxChartDays+1), true},
		{"unknown mode", Selector{Mode: "weighted", CoinID: "x", Days: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sel.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
