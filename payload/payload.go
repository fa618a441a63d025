// Package payload defines the records cached by the refresh coordinator and
// their encoding at the key-value store boundary.
package payload

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coin identifies an upstream token
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Detail is the enriched market record for one coin
type Detail struct {
	ID           string              `json:"id"`
	Symbol       string              `json:"symbol"`
	Name         string              `json:"name"`
	ImageURL     string              `json:"image_url,omitempty"`
	PriceUSD     decimal.NullDecimal `json:"price_usd"`
	MarketCapUSD decimal.NullDecimal `json:"market_cap_usd"`
}

// PricePoint is one sample of a price series
type PricePoint struct {
	Time  time.Time `json:"t"`
	Price float64   `json:"p"`
}

// Chart is a USD price series covering Days days
type Chart struct {
	Days   int          `json:"days"`
	Prices []PricePoint `json:"prices"`
}

// Source is what a fetch produces and a render consumes
type Source struct {
	Subject Coin
	Detail  *Detail
	Chart   *Chart
}

// Payload is the cached unit of work. It is built once by a refresh and
// replaced wholesale by the next one; holders must not mutate it.
type Payload struct {
	Subject     Coin      `json:"subject"`
	Detail      Detail    `json:"detail"`
	Chart       Chart     `json:"chart"`
	Image       []byte    `json:"image"`
	ImageType   string    `json:"image_type"`
	GeneratedAt time.Time `json:"generated_at"`
}

// New assembles a payload from a fetched source and its rendered image
func New(src *Source, image []byte, imageType string, generatedAt time.Time) *Payload {
	p := &Payload{
		Subject:     src.Subject,
		Image:       image,
		ImageType:   imageType,
		GeneratedAt: generatedAt.UTC(),
	}
	if src.Detail != nil {
		p.Detail = *src.Detail
	}
	if src.Chart != nil {
		p.Chart = *src.Chart
	}
	return p
}
