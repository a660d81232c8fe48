package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Ages outside this window are reporting errors, not data.
const (
	minAge = -1
	maxAge = 300
)

var ageUnitPattern = regexp.MustCompile(`(?i)^([0-9]+(?:\.[0-9]+)?)\s*(month|months|week|weeks)$`)

// Age parses a single age value in years. "N month(s)" converts to N/12 and
// "N week(s)" to N/52 years.
func Age(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if m := ageUnitPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, newError(raw, "invalid age number")
		}
		switch strings.ToLower(m[2]) {
		case "month", "months":
			n /= 12
		case "week", "weeks":
			n /= 52
		}
		return checkAge(raw, n)
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, newError(raw, "invalid age")
	}
	return checkAge(raw, n)
}

func checkAge(raw string, n float64) (float64, error) {
	if n < minAge || n > maxAge {
		return 0, newErrorf(raw, "age %g outside [%d, %d]", n, minAge, maxAge)
	}
	return n, nil
}

// AgeRange parses a scalar-or-range age bracket ("20-29", "90+", "6 months").
func AgeRange(raw string) (start, end *float64, err error) {
	return Range(raw, Age)
}
