// Package core holds the record domain model and the pure monthly
// aggregation functions over it.
//
// This file contains amount parsing for user-entered values.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered decimal string into an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Sign
// prefixes are rejected: amounts are always non-negative. Zero is a valid
// amount.
//
// Examples:
//
//	ParseAmount("100")   -> 100, nil
//	ParseAmount("50,5")  -> 50.5, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
