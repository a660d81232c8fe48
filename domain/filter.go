package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterOperator is the closed set of comparison operators the filter model
// supports. Evaluation and storage translation must support exactly the same
// operators; an unsupported operator errors in both, never silently matches.
type FilterOperator string

const (
	OpLessThan    FilterOperator = "LESS_THAN"
	OpGreaterThan FilterOperator = "GREATER_THAN"
	OpEqual       FilterOperator = "EQUAL"
)

// Filter is a boolean predicate over cases. It is a tagged variant: the three
// concrete types below are the only implementations, and both Evaluate and
// the storage translation switch exhaustively over them.
type Filter interface {
	isFilter()
}

// Anything matches every case.
type Anything struct{}

// PropertyFilter compares a dotted property path against a value.
type PropertyFilter struct {
	Path  string
	Op    FilterOperator
	Value interface{}
}

// AndFilter is the conjunction of a non-empty ordered list of filters.
type AndFilter struct {
	Filters []Filter
}

func (Anything) isFilter()       {}
func (PropertyFilter) isFilter() {}
func (AndFilter) isFilter()      {}

// MatchesEverything reports whether the filter is the identity predicate.
// Used by the batch-delete safety rail.
func MatchesEverything(f Filter) bool {
	switch v := f.(type) {
	case Anything:
		return true
	case AndFilter:
		for _, sub := range v.Filters {
			if !MatchesEverything(sub) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Evaluate applies the filter to a case in memory.
func Evaluate(f Filter, c *Case) (bool, error) {
	switch v := f.(type) {
	case Anything:
		return true, nil
	case PropertyFilter:
		return evaluateProperty(v, c)
	case AndFilter:
		for _, sub := range v.Filters {
			match, err := Evaluate(sub, c)
			if err != nil {
				return false, err
			}
			if !match {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, NewErrorf(ErrCodeInternal, "unknown filter variant %T", f)
	}
}

func evaluateProperty(f PropertyFilter, c *Case) (bool, error) {
	value, present := c.ValueAtPath(f.Path)
	if !present {
		return false, nil
	}
	cmp, err := compareValues(value, f.Value)
	if err != nil {
		return false, err
	}
	switch f.Op {
	case OpLessThan:
		return cmp < 0, nil
	case OpGreaterThan:
		return cmp > 0, nil
	case OpEqual:
		return cmp == 0, nil
	default:
		return false, NewErrorf(ErrCodePrecondition, "unsupported filter operator %q", f.Op)
	}
}

func compareValues(actual, expected interface{}) (int, error) {
	if at, ok := asTime(actual); ok {
		et, ok := asTime(expected)
		if !ok {
			return 0, NewErrorf(ErrCodeValidation, "cannot compare date with %T", expected)
		}
		switch {
		case at.Before(et):
			return -1, nil
		case at.After(et):
			return 1, nil
		default:
			return 0, nil
		}
	}
	if af, ok := asFloat(actual); ok {
		ef, ok := asFloat(expected)
		if !ok {
			return 0, NewErrorf(ErrCodeValidation, "cannot compare number with %T", expected)
		}
		switch {
		case af < ef:
			return -1, nil
		case af > ef:
			return 1, nil
		default:
			return 0, nil
		}
	}
	as, aok := asString(actual)
	es, eok := asString(expected)
	if aok && eok {
		return strings.Compare(as, es), nil
	}
	return 0, NewErrorf(ErrCodeValidation, "cannot compare values of types %T and %T", actual, expected)
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case CurationStatus:
		return string(s), true
	default:
		return "", false
	}
}
