package render

import (
	"strings"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// FormatUSD formats an amount as en-US dollars: thousands separators,
// up to 6 fraction digits below $1 and exactly 2 otherwise. Absent values
// format as "-".
func FormatUSD(v decimal.NullDecimal) string {
	if !v.Valid {
		return "-"
	}
	d := v.Decimal
	neg := d.IsNegative()
	d = d.Abs()

	var s string
	if d.LessThan(one) {
		s = trimFraction(d.StringFixed(6), 2)
	} else {
		s = d.StringFixed(2)
	}

	intPart, frac, _ := strings.Cut(s, ".")
	out := "$" + groupThousands(intPart) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// trimFraction drops trailing zeros while keeping at least minDigits digits
func trimFraction(s string, minDigits int) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	end := len(s)
	for end > dot+1+minDigits && s[end-1] == '0' {
		end--
	}
	return s[:end]
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
