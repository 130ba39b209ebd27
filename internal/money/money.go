package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round округляет сумму до центов по правилам decimal (половина от нуля).
func Round(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

// Cents возвращает сумму строкой с двумя знаками без разделителей, для CSV и JSON-экспорта.
func Cents(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2)
}

// Format возвращает сумму вида "$12,345.67"; отрицательные значения получают ведущий минус.
func Format(value float64) string {
	amount := decimal.NewFromFloat(value).Round(2)

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	fixed := amount.StringFixed(2)
	whole, fraction, _ := strings.Cut(fixed, ".")
	return sign + "$" + groupThousands(whole) + "." + fraction
}

// Percent форматирует долю как процент с одним знаком: 0.185 -> "18.5%".
func Percent(value float64) string {
	return decimal.NewFromFloat(value).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
