package normalize

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ParseDate parses a purchase date in "dd/mm/yyyy" form into a civil date.
// It returns false for anything that is not exactly three slash-separated
// numeric fields or that does not name a real calendar day. Dates are the
// primary matching key, so an unparseable date means the row is unusable.
func ParseDate(raw string) (civil.Date, bool) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 3 {
		return civil.Date{}, false
	}

	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return civil.Date{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return civil.Date{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return civil.Date{}, false
	}

	date := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !date.IsValid() {
		return civil.Date{}, false
	}
	return date, true
}

// ParseISODate parses a "YYYY-MM-DD" string, as produced by the document
// extraction payload.
func ParseISODate(raw string) (civil.Date, bool) {
	date, err := civil.ParseDate(strings.TrimSpace(raw))
	if err != nil || !date.IsValid() {
		return civil.Date{}, false
	}
	return date, true
}
