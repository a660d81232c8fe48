package domain

import (
	"time"
)

// FieldType enumerates the primitive types a runtime-declared field may take.
type FieldType string

const (
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeDate    FieldType = "date"
	FieldTypeEnum    FieldType = "enum"
)

// ValidFieldType reports whether t is one of the closed set of field types.
func ValidFieldType(t FieldType) bool {
	switch t {
	case FieldTypeBoolean, FieldTypeString, FieldTypeNumber, FieldTypeDate, FieldTypeEnum:
		return true
	}
	return false
}

// Field describes a runtime-declared attribute of the case record. Fields are
// persisted so the running schema can be reconstructed after a restart.
type Field struct {
	Key                string        `json:"key" bson:"key"`
	Type               FieldType     `json:"type" bson:"type"`
	DataDictionaryText string        `json:"dataDictionaryText" bson:"dataDictionaryText"`
	Required           bool          `json:"required" bson:"required"`
	Default            interface{}   `json:"default,omitempty" bson:"default,omitempty"`
	EnumValues         []string      `json:"values,omitempty" bson:"values,omitempty"`
}

// Validate checks the field declaration itself, not a value.
func (f Field) Validate() error {
	if f.Key == "" {
		return NewError(ErrCodeValidation, "field key is mandatory")
	}
	if !ValidFieldType(f.Type) {
		return NewErrorf(ErrCodeValidation, "unknown field type %q for field %q", f.Type, f.Key)
	}
	if f.Type == FieldTypeEnum && len(f.EnumValues) == 0 {
		return NewErrorf(ErrCodeValidation, "enum field %q declares no values", f.Key)
	}
	if f.Default != nil {
		if err := f.CheckValue(f.Default); err != nil {
			return WrapError(ErrCodeValidation, "default does not match field type", err)
		}
	}
	return nil
}

// CheckValue verifies that a value is assignable to this field.
func (f Field) CheckValue(v interface{}) error {
	if v == nil {
		return nil
	}
	switch f.Type {
	case FieldTypeBoolean:
		if _, ok := v.(bool); !ok {
			return NewErrorf(ErrCodeValidation, "field %q expects a boolean, got %T", f.Key, v)
		}
	case FieldTypeString:
		if _, ok := v.(string); !ok {
			return NewErrorf(ErrCodeValidation, "field %q expects a string, got %T", f.Key, v)
		}
	case FieldTypeNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64:
		default:
			return NewErrorf(ErrCodeValidation, "field %q expects a number, got %T", f.Key, v)
		}
	case FieldTypeDate:
		switch v.(type) {
		case time.Time, *time.Time, string:
		default:
			return NewErrorf(ErrCodeValidation, "field %q expects a date, got %T", f.Key, v)
		}
	case FieldTypeEnum:
		s, ok := v.(string)
		if !ok {
			return NewErrorf(ErrCodeValidation, "field %q expects one of its declared values, got %T", f.Key, v)
		}
		for _, allowed := range f.EnumValues {
			if s == allowed {
				return nil
			}
		}
		return NewErrorf(ErrCodeValidation, "field %q does not allow value %q", f.Key, s)
	}
	return nil
}

// Schema is an immutable snapshot of the declared custom fields, in
// declaration order. The case aggregate is validated against the snapshot it
// was constructed with; declaring a field produces a new snapshot rather than
// mutating an existing one.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a snapshot from fields in declaration order. Duplicate
// keys are rejected.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		next, err := s.WithField(f)
		if err != nil {
			return nil, err
		}
		s = next
	}
	return s, nil
}

// EmptySchema returns a snapshot with no declared fields.
func EmptySchema() *Schema {
	return &Schema{index: map[string]int{}}
}

// WithField returns a new snapshot containing the additional field. A field
// once declared cannot be re-declared under the same name.
func (s *Schema) WithField(f Field) (*Schema, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if _, exists := s.index[f.Key]; exists {
		return nil, NewErrorf(ErrCodeConflict, "field %q is already declared", f.Key)
	}
	next := &Schema{
		fields: make([]Field, 0, len(s.fields)+1),
		index:  make(map[string]int, len(s.index)+1),
	}
	next.fields = append(next.fields, s.fields...)
	next.fields = append(next.fields, f)
	for i, existing := range next.fields {
		next.index[existing.Key] = i
	}
	return next, nil
}

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a declared field by key.
func (s *Schema) Field(key string) (Field, bool) {
	i, ok := s.index[key]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	return len(s.fields)
}
