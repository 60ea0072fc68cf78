package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUnits converts a raw integer amount into a decimal string with the given number of decimals.
// The result always carries a fractional part: 10000 with 2 decimals => "100.0",
// 1234500000000000000 with 18 decimals => "1.2345".
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0.0"
	}
	formatted := decimal.NewFromBigInt(amount, -int32(decimals)).String()
	if !strings.Contains(formatted, ".") {
		formatted += ".0"
	}
	return formatted
}

// ParseUnits is the inverse of FormatUnits. Extra fractional digits are rejected.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid decimal amount %q: %w", value, err)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", value, decimals)
	}
	return scaled.BigInt(), nil
}
