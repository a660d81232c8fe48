package parse

import (
	"strings"
	"time"
)

// Source feeds use a handful of date layouts. Day-first layouts are tried
// before their transposed month-first twins because source data is known to
// sometimes swap day and month.
var dateLayouts = []struct {
	primary    string
	transposed string
}{
	{primary: "02.01.2006", transposed: "01.02.2006"},
	{primary: "02/01/2006", transposed: "01/02/2006"},
	{primary: "2006-01-02"},
	{primary: "20060102"},
}

// Date parses a raw source date string. Absent input yields nil. The result
// is a calendar date with no time component, in UTC.
func Date(raw string) (*time.Time, error) {
	if absent(raw) {
		return nil, nil
	}
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout.primary, s); err == nil {
			d := t.UTC()
			return &d, nil
		}
		if layout.transposed == "" {
			continue
		}
		if t, err := time.Parse(layout.transposed, s); err == nil {
			d := t.UTC()
			return &d, nil
		}
	}
	return nil, newError(raw, "unrecognized date format")
}
