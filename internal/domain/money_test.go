package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestGroupThousands(t *testing.T) {
	tests := map[string]decimal.Decimal{
		"0":         decimal.Zero,
		"999":       decimal.NewFromInt(999),
		"80,000":    decimal.NewFromInt(80000),
		"200,000":   decimal.NewFromInt(200000),
		"1,500,000": decimal.NewFromInt(1500000),
		"-45,000":   decimal.NewFromInt(-45000),
		"12,346":    decimal.RequireFromString("12345.6"),
	}
	for want, in := range tests {
		if got := GroupThousands(in); got != want {
			t.Errorf("GroupThousands(%s) = %q, want %q", in, got, want)
		}
	}
}
