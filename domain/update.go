package domain

import (
	"sort"
	"strings"
)

// PathValue is a single dotted-path set operation.
type PathValue struct {
	Path  string
	Value interface{}
}

// DocumentUpdate is a partial-update description independent of storage
// technology: an ordered collection of dotted-path sets and an ordered
// collection of unset paths. A path never appears in both.
type DocumentUpdate struct {
	sets     []PathValue
	unsets   []string
	setIdx   map[string]struct{}
	unsetIdx map[string]struct{}
}

// NewDocumentUpdate returns an empty update.
func NewDocumentUpdate() *DocumentUpdate {
	return &DocumentUpdate{
		setIdx:   map[string]struct{}{},
		unsetIdx: map[string]struct{}{},
	}
}

// DocumentUpdateFromDoc interprets a nested update description. Nested
// objects are walked recursively to build dotted paths; a null leaf is the
// remove sentinel and becomes an unset, every other leaf becomes a set.
func DocumentUpdateFromDoc(desc map[string]interface{}) (*DocumentUpdate, error) {
	u := NewDocumentUpdate()
	if err := u.walk("", desc); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *DocumentUpdate) walk(prefix string, doc map[string]interface{}) error {
	// Map iteration order is not deterministic; sort keys so sets and
	// unsets come out in a stable order.
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch value := doc[key].(type) {
		case nil:
			if err := u.Unset(path); err != nil {
				return err
			}
		case map[string]interface{}:
			if err := u.walk(path, value); err != nil {
				return err
			}
		default:
			if err := u.Set(path, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Set records a set operation for the path.
func (u *DocumentUpdate) Set(path string, value interface{}) error {
	if err := u.checkPath(path); err != nil {
		return err
	}
	u.sets = append(u.sets, PathValue{Path: path, Value: value})
	u.setIdx[path] = struct{}{}
	return nil
}

// Unset records a removal of the path.
func (u *DocumentUpdate) Unset(path string) error {
	if err := u.checkPath(path); err != nil {
		return err
	}
	u.unsets = append(u.unsets, path)
	u.unsetIdx[path] = struct{}{}
	return nil
}

func (u *DocumentUpdate) checkPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return NewError(ErrCodeValidation, "update path is empty")
	}
	_, isSet := u.setIdx[path]
	_, isUnset := u.unsetIdx[path]
	if isSet || isUnset {
		return NewErrorf(ErrCodeValidation, "path %q appears more than once in the update", path)
	}
	return nil
}

// Sets returns the set operations in insertion order.
func (u *DocumentUpdate) Sets() []PathValue {
	out := make([]PathValue, len(u.sets))
	copy(out, u.sets)
	return out
}

// Unsets returns the unset paths in insertion order.
func (u *DocumentUpdate) Unsets() []string {
	out := make([]string, len(u.unsets))
	copy(out, u.unsets)
	return out
}

// Len is the total number of operations. O(1) so callers can short-circuit
// no-op updates.
func (u *DocumentUpdate) Len() int {
	return len(u.sets) + len(u.unsets)
}

// IsEmpty reports whether the update carries no operations.
func (u *DocumentUpdate) IsEmpty() bool {
	return u.Len() == 0
}
