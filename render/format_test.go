package render

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"0.5", "$0.50"},
		{"0.00512345", "$0.005123"},
		{"0.0000001", "$0.00"},
		{"0.12", "$0.12"},
		{"1", "$1.00"},
		{"1.005", "$1.01"},
		{"999.999", "$1,000.00"},
		{"1234567.891", "$1,234,567.89"},
		{"12345678901", "$12,345,678,901.00"},
		{"-1500.5", "-$1,500.50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUSD(decimal.NewNullDecimal(decimal.RequireFromString(tt.in))))
		})
	}
}

func TestFormatUSD_Absent(t *testing.T) {
	assert.Equal(t, "-", FormatUSD(decimal.NullDecimal{}))
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "1", groupThousands("1"))
	assert.Equal(t, "123", groupThousands("123"))
	assert.Equal(t, "1,234", groupThousands("1234"))
	assert.Equal(t, "123,456", groupThousands("123456"))
	assert.Equal(t, "1,234,567", groupThousands("1234567"))
}
