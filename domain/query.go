package domain

import (
	"strings"
	"time"
)

// Reserved query keys carrying date-comparison semantics.
const (
	keyDateBefore = "dateconfirmedbefore"
	keyDateAfter  = "dateconfirmedafter"
)

// propertyAliases maps the short query keys of the text grammar onto dotted
// property paths for equality terms. Keys containing a dot are taken as
// literal paths; any other key outside this table is rejected.
var propertyAliases = map[string]string{
	"country":       "location.country",
	"admin1":        "location.admin1",
	"admin2":        "location.admin2",
	"place":         "location.locality",
	"sex":           "demographics.sex",
	"sourceid":      "caseReference.sourceId",
	"sourceentryid": "caseReference.sourceEntryId",
	"sourceurl":     "caseReference.sourceUrl",
	"status":        "caseReference.status",
	"note":          "caseExclusion.note",
}

// ParseQuery parses the textual filter grammar: whitespace-separated
// key:value terms, implicitly AND-ed. An empty query matches everything.
// Values containing spaces must be double-quoted. A malformed term rejects
// the whole query, naming the offending term.
func ParseQuery(query string) (Filter, error) {
	terms, err := splitTerms(query)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return Anything{}, nil
	}
	filters := make([]Filter, 0, len(terms))
	for _, term := range terms {
		f, err := parseTerm(term)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	if len(filters) == 1 {
		return filters[0], nil
	}
	return AndFilter{Filters: filters}, nil
}

func parseTerm(term string) (Filter, error) {
	colon := strings.Index(term, ":")
	if colon <= 0 || colon == len(term)-1 {
		return nil, NewErrorf(ErrCodePrecondition, "malformed query term %q", term)
	}
	key := strings.ToLower(term[:colon])
	value := strings.Trim(term[colon+1:], `"`)
	if value == "" {
		return nil, NewErrorf(ErrCodePrecondition, "malformed query term %q", term)
	}

	switch key {
	case keyDateBefore, keyDateAfter:
		date, err := time.Parse(isoDateLayout, value)
		if err != nil {
			return nil, NewErrorf(ErrCodePrecondition, "query term %q: date must be YYYY-MM-DD", term)
		}
		op := OpLessThan
		if key == keyDateAfter {
			op = OpGreaterThan
		}
		return PropertyFilter{Path: "confirmationDate", Op: op, Value: date.UTC()}, nil
	}

	path, ok := propertyAliases[key]
	if !ok {
		if !strings.Contains(key, ".") {
			return nil, NewErrorf(ErrCodePrecondition, "unsupported query term %q", term)
		}
		path = key
	}
	return PropertyFilter{Path: path, Op: OpEqual, Value: value}, nil
}

// splitTerms tokenizes on whitespace while keeping double-quoted spans
// together, so `place:"New York"` stays a single term.
func splitTerms(query string) ([]string, error) {
	var (
		terms    []string
		current  strings.Builder
		inQuotes bool
	)
	for _, r := range strings.TrimSpace(query) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				terms = append(terms, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, NewError(ErrCodePrecondition, "unterminated quote in query")
	}
	if current.Len() > 0 {
		terms = append(terms, current.String())
	}
	return terms, nil
}
