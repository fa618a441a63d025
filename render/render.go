// Package render draws the payload card: a PNG with the coin's name,
// price, market cap and a price sparkline.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dailyyoga/coinframe/payload"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// ContentType of every rendered card
const ContentType = "image/png"

// Renderer draws cards. It is safe for concurrent use.
type Renderer struct {
	cfg     Config
	regular *truetype.Font
	bold    *truetype.Font
}

// New creates a Renderer
func New(cfg *Config) (*Renderer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, ErrFont(err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, ErrFont(err)
	}
	return &Renderer{cfg: *cfg, regular: regular, bold: bold}, nil
}

// ContentType returns the media type of the rendered bytes
func (r *Renderer) ContentType() string {
	return ContentType
}

// Render draws src as a PNG
func (r *Renderer) Render(ctx context.Context, src *payload.Source) ([]byte, error) {
	if src == nil || src.Detail == nil {
		return nil, fmt.Errorf("%w: missing detail", ErrInvalidSource)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := r.cfg
	w, h := float64(cfg.Width), float64(cfg.Height)
	pad := cfg.Padding
	dc := gg.NewContext(cfg.Width, cfg.Height)

	dc.SetHexColor(cfg.Background)
	dc.Clear()

	// faces carry glyph caches and are not safe to share between renders
	title := r.face(r.bold, 64)
	body := r.face(r.regular, 32)
	price := r.face(r.bold, 56)
	small := r.face(r.regular, 26)
	defer closeFaces(title, body, price, small)

	name := firstNonEmpty(src.Detail.Name, src.Subject.Name, src.Subject.ID)
	symbol := strings.ToUpper(firstNonEmpty(src.Detail.Symbol, src.Subject.Symbol))

	y := pad + 64
	dc.SetFontFace(title)
	dc.SetHexColor(cfg.Foreground)
	dc.DrawString(name, pad, y)
	nameWidth, _ := dc.MeasureString(name)

	if symbol != "" {
		dc.SetFontFace(body)
		dc.SetHexColor(cfg.Muted)
		dc.DrawString(symbol, pad+nameWidth+24, y)
	}

	y += 80
	dc.SetFontFace(price)
	dc.SetHexColor(cfg.Foreground)
	dc.DrawString(FormatUSD(src.Detail.PriceUSD), pad, y)

	y += 48
	dc.SetFontFace(body)
	dc.SetHexColor(cfg.Muted)
	dc.DrawString("Market Cap: "+FormatUSD(src.Detail.MarketCapUSD), pad, y)

	chartTop := y + 40
	chartBottom := h - pad - 40
	if src.Chart != nil {
		dc.SetFontFace(small)
		dc.SetHexColor(cfg.Muted)
		dc.DrawStringAnchored(fmt.Sprintf("%dd price", src.Chart.Days), w-pad, pad+40, 1, 0)

		r.sparkline(dc, src.Chart.Prices, pad, chartTop, w-2*pad, chartBottom-chartTop)
	}

	if cfg.Footer != "" {
		dc.SetFontFace(small)
		dc.SetHexColor(cfg.Muted)
		dc.DrawString(cfg.Footer, pad, h-pad+10)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, ErrEncode(err)
	}
	return buf.Bytes(), nil
}

// sparkline strokes points scaled into the box; a flat series is drawn at
// mid-height
func (r *Renderer) sparkline(dc *gg.Context, points []payload.PricePoint, x, y, width, height float64) {
	if len(points) == 0 || height <= 0 {
		return
	}
	lo, hi := points[0].Price, points[0].Price
	for _, p := range points[1:] {
		lo = min(lo, p.Price)
		hi = max(hi, p.Price)
	}

	dx := width
	if len(points) > 1 {
		dx = width / float64(len(points)-1)
	}
	scaleY := func(v float64) float64 {
		if hi == lo {
			return y + height/2
		}
		return y + height - (v-lo)/(hi-lo)*height
	}

	dc.NewSubPath()
	for i, p := range points {
		px, py := x+float64(i)*dx, scaleY(p.Price)
		if i == 0 {
			dc.MoveTo(px, py)
		} else {
			dc.LineTo(px, py)
		}
	}
	if len(points) == 1 {
		dc.LineTo(x+width, scaleY(points[0].Price))
	}
	dc.SetHexColor(r.cfg.Accent)
	dc.SetLineWidth(r.cfg.LineWidth)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.Stroke()
}

func (r *Renderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingFull})
}

func closeFaces(faces ...font.Face) {
	for _, f := range faces {
		_ = f.Close()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
