package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var installmentPattern = regexp.MustCompile(`^(\d+)/(\d+)$`)

// singleInstallmentMarkers are the literals some statements use for a
// purchase paid in full; they carry no installment information.
var singleInstallmentMarkers = []string{"única", "unica"}

// ParseInstallment parses an "N/M" installment marker into its number and
// total. The single-installment literal, any other shape, and pairs that
// violate 1 <= number <= total all return ok=false; callers must treat that
// as "not an installment purchase", never as an error.
func ParseInstallment(raw string) (number, total int, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, 0, false
	}

	for _, marker := range singleInstallmentMarkers {
		if strings.EqualFold(s, marker) {
			return 0, 0, false
		}
	}

	m := installmentPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}

	number, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}

	if number < 1 || number > total {
		return 0, 0, false
	}
	return number, total, true
}
