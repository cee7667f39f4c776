package mongo

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func parseStoredDate(raw string) (civil.Date, bool) {
	date, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, false
	}
	return date, true
}

func parseStoredDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
