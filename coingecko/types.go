package coingecko

import (
	"fmt"
	"strings"
	"time"

	"github.com/dailyyoga/coinframe/payload"
	"github.com/shopspring/decimal"
)

type marketResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type detailResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
	MarketData *struct {
		CurrentPrice map[string]decimal.NullDecimal `json:"current_price"`
		MarketCap    map[string]decimal.NullDecimal `json:"market_cap"`
	} `json:"market_data"`
}

func (r *detailResponse) toDetail() *payload.Detail {
	d := &payload.Detail{
		ID:       r.ID,
		Symbol:   r.Symbol,
		Name:     r.Name,
		ImageURL: firstNonEmpty(r.Image.Large, r.Image.Small, r.Image.Thumb),
	}
	if r.MarketData != nil {
		d.PriceUSD = r.MarketData.CurrentPrice["usd"]
		d.MarketCapUSD = r.MarketData.MarketCap["usd"]
	}
	return d
}

// chartResponse holds [unix millis, price] pairs
type chartResponse struct {
	Prices [][]float64 `json:"prices"`
}

func (r *chartResponse) toChart(days int) (*payload.Chart, error) {
	chart := &payload.Chart{
		Days:   days,
		Prices: make([]payload.PricePoint, 0, len(r.Prices)),
	}
	for i, p := range r.Prices {
		if len(p) != 2 {
			return nil, fmt.Errorf("price point %d has %d values", i, len(p))
		}
		chart.Prices = append(chart.Prices, payload.PricePoint{
			Time:  time.UnixMilli(int64(p[0])).UTC(),
			Price: p[1],
		})
	}
	return chart, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
