package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// GroupThousands renders a whole amount as 200,000.
func GroupThousands(d decimal.Decimal) string {
	s := d.Round(0).Abs().String()
	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
