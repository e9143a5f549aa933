package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnspecifiedLabel is the bucket every blank line-item label collapses into.
const UnspecifiedLabel = "Unspecified"

// Round2 is the single rounding point for monetary output. Running sums stay
// unrounded; call this only when emitting a final value.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NormalizeLabel collapses internal whitespace and trims. Blank or
// whitespace-only input becomes UnspecifiedLabel.
func NormalizeLabel(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return UnspecifiedLabel
	}
	return strings.Join(fields, " ")
}

// SafeDivide returns numerator/denominator rounded to 2 places, or zero when
// the denominator is zero.
func SafeDivide(numerator decimal.Decimal, denominator int64) decimal.Decimal {
	if denominator == 0 {
		return decimal.Zero
	}
	return numerator.DivRound(decimal.NewFromInt(denominator), 2)
}

func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

func UniqueSlice[T comparable](slice []T) []T {
	seen := make(map[T]struct{}, len(slice))
	result := make([]T, 0, len(slice))
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
