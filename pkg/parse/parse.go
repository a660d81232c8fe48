// Package parse holds the stateless converters shared by every per-source
// ingestion script: raw locale-specific strings in, typed values out. Each
// converter returns nil for absent input, a *parse.Error for malformed
// input, and never coerces out-of-domain values silently.
package parse

import (
	"fmt"
	"strings"
)

// Error is the typed parse failure reported by every converter in this
// package.
type Error struct {
	Input  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

func newError(input, reason string) *Error {
	return &Error{Input: input, Reason: reason}
}

func newErrorf(input, format string, args ...interface{}) *Error {
	return &Error{Input: input, Reason: fmt.Sprintf(format, args...)}
}

// absent reports whether the raw input is an empty or "n/a"-equivalent value
// that converters treat as no value rather than a parse failure.
func absent(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "na", "n/a", "none":
		return true
	}
	return false
}
