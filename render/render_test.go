package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/dailyyoga/coinframe/payload"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource(prices ...float64) *payload.Source {
	chart := &payload.Chart{Days: 7}
	for i, p := range prices {
		chart.Prices = append(chart.Prices, payload.PricePoint{Time: time.Unix(int64(i)*3600, 0), Price: p})
	}
	return &payload.Source{
		Subject: payload.Coin{ID: "higher", Symbol: "higher", Name: "Higher"},
		Detail: &payload.Detail{
			ID:       "higher",
			Symbol:   "higher",
			Name:     "Higher",
			PriceUSD: decimal.NewNullDecimal(decimal.RequireFromString("0.0051")),
		},
		Chart: chart,
	}
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func assertColor(t *testing.T, img image.Image, x, y int, hex string) {
	t.Helper()
	want, err := parseHex(hex)
	require.NoError(t, err)
	got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d > -3 && d < 3
	}
	assert.True(t, near(got.R, want.R) && near(got.G, want.G) && near(got.B, want.B),
		"pixel (%d,%d) = %v, want %s", x, y, got, hex)
}

func parseHex(hex string) (color.NRGBA, error) {
	var c color.NRGBA
	c.A = 0xff
	_, err := fmt.Sscanf(hex, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	return c, err
}

func TestRenderer_Render(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "image/png", r.ContentType())

	data, err := r.Render(context.Background(), testSource(1, 3, 2, 5))
	require.NoError(t, err)

	img := decode(t, data)
	assert.Equal(t, image.Rect(0, 0, 1200, 630), img.Bounds())
	assertColor(t, img, 2, 2, "#0b0d10")
}

func TestRenderer_FlatSeriesDrawnAtMidHeight(t *testing.T) {
	r, err := New(&Config{Footer: ""})
	require.NoError(t, err)

	data, err := r.Render(context.Background(), testSource(2, 2, 2))
	require.NoError(t, err)

	img := decode(t, data)
	// chart box spans y 280..542 with the default layout
	assertColor(t, img, 600, 411, "#22d3ee")
	assertColor(t, img, 600, 300, "#0b0d10")
}

func TestRenderer_NoChartOrPrices(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	src := testSource()
	src.Chart = nil
	src.Detail.PriceUSD = decimal.NullDecimal{}
	_, err = r.Render(context.Background(), src)
	assert.NoError(t, err)
}

func TestRenderer_InvalidSource(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	_, err = r.Render(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidSource)

	_, err = r.Render(context.Background(), &payload.Source{Subject: payload.Coin{ID: "x"}})
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestRenderer_CanceledContext(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Render(ctx, testSource(1, 2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"too small", func(c *Config) { c.Width = 100 }},
		{"padding", func(c *Config) { c.Padding = 700 }},
		{"color", func(c *Config) { c.Accent = "cyan" }},
		{"short color", func(c *Config) { c.Background = "#fff" }},
		{"line width", func(c *Config) { c.LineWidth = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
