package session

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL formata um valor em reais no padrão brasileiro: "R$ 1.234,50"
func FormatBRL(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}
	intPart, frac, _ := strings.Cut(v.StringFixed(2), ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "R$ " + b.String() + "," + frac
}
