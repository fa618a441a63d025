package payload

import (
	"fmt"
	"strings"
)

// Mode decides how the subject of a payload is chosen
type Mode string

const (
	// ModeExact always builds the payload for one configured coin
	ModeExact Mode = "exact"
	// ModeRandom picks a random coin from a category on every refresh
	ModeRandom Mode = "random"
)

// Selector describes which logical subject a payload is built for.
// Its Key is stable across refreshes, including in random mode where the
// concrete coin is only decided by the refresh itself.
type Selector struct {
	Mode     Mode   `mapstructure:"mode" json:"mode"`
	CoinID   string `mapstructure:"coin_id" json:"coin_id,omitempty"`
	Category string `mapstructure:"category" json:"category,omitempty"`
	Days     int    `mapstructure:"days" json:"days"`
}

// Exact returns a normalized selector for one coin
func Exact(coinID string, days int) Selector {
	return Selector{Mode: ModeExact, CoinID: coinID, Days: days}.Normalize()
}

// Random returns a normalized selector that draws from a category
func Random(category string, days int) Selector {
	return Selector{Mode: ModeRandom, Category: category, Days: days}.Normalize()
}

// Normalize trims and lowercases the subject. CoinGecko ids and category
// ids are lowercase, and the cache key and the upstream request are both
// derived from the normalized value.
func (s Selector) Normalize() Selector {
	s.Mode = Mode(strings.ToLower(strings.TrimSpace(string(s.Mode))))
	s.CoinID = strings.ToLower(strings.TrimSpace(s.CoinID))
	s.Category = strings.ToLower(strings.TrimSpace(s.Category))
	return s
}

// Validate checks that the normalized selector names a subject
func (s Selector) Validate() error {
	s = s.Normalize()
	if s.Days < 1 || s.Days > MaxChartDays {
		return ErrInvalidSelector(fmt.Sprintf("days %d must be within 1..%d", s.Days, MaxChartDays))
	}
	switch s.Mode {
	case ModeExact:
		if s.CoinID == "" {
			return ErrInvalidSelector("coin_id is required in exact mode")
		}
	case ModeRandom:
		if s.Category == "" {
			return ErrInvalidSelector("category is required in random mode")
		}
	default:
		return ErrInvalidSelector(fmt.Sprintf("mode %q must be %q or %q", s.Mode, ModeExact, ModeRandom))
	}
	return nil
}

// Key is the stable identity of the selected subject
func (s Selector) Key() string {
	s = s.Normalize()
	subject := s.CoinID
	if s.Mode == ModeRandom {
		subject = s.Category
	}
	return fmt.Sprintf("%s:%s:%dd", s.Mode, subject, s.Days)
}

// String implements fmt.Stringer
func (s Selector) String() string {
	return s.Key()
}

// MaxChartDays bounds the chart window a selector may request
const MaxChartDays = 365
