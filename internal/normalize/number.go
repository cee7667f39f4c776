package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber parses a monetary value written with either a decimal comma
// ("1.234,56") or a decimal point ("1234.56"). Absent or malformed numeric
// fields are common in statement exports and must not abort an otherwise
// valid row, so unparseable input yields zero instead of an error.
func ParseNumber(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero
	}

	if strings.Contains(s, ",") {
		// Comma is the decimal separator; dots are thousands separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CleanOptional trims a textual field and maps empty strings and the "-"
// placeholder some banks emit to nil.
func CleanOptional(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return nil
	}
	return &s
}
