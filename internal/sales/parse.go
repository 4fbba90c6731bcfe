package sales

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a money value. Empty or malformed input yields
// Valid=false, which the feature builder treats as missing.
func ParseAmount(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ParseAmountPtr is ParseAmount for nullable columns
func ParseAmountPtr(s *string) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	return ParseAmount(*s)
}
