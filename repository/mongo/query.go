package mongo

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linelist/backend/domain"
)

// coreSections are the top-level keys of the typed case document. Property
// paths outside them address declared custom fields, which live under the
// "custom" sub-document in storage.
var coreSections = map[string]struct{}{
	"_id":              {},
	"confirmationDate": {},
	"caseReference":    {},
	"caseExclusion":    {},
	"demographics":     {},
	"location":         {},
	"events":           {},
}

// storagePath maps a domain property path onto its document path.
func storagePath(path string) string {
	section := path
	if i := strings.Index(path, "."); i >= 0 {
		section = path[:i]
	}
	if _, core := coreSections[section]; core {
		return path
	}
	return "custom." + path
}

// TranslateFilter renders a domain filter as a bson query document. Operator
// support mirrors domain.Evaluate exactly: an operator unsupported there is
// rejected here with the same error, never translated approximately.
func TranslateFilter(f domain.Filter) (bson.M, error) {
	switch v := f.(type) {
	case domain.Anything:
		return bson.M{}, nil
	case domain.PropertyFilter:
		return translateProperty(v)
	case domain.AndFilter:
		clauses := make(bson.A, 0, len(v.Filters))
		for _, sub := range v.Filters {
			clause, err := TranslateFilter(sub)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, clause)
		}
		return bson.M{"$and": clauses}, nil
	default:
		return nil, domain.NewErrorf(domain.ErrCodeInternal, "unknown filter variant %T", f)
	}
}

func translateProperty(f domain.PropertyFilter) (bson.M, error) {
	path := storagePath(f.Path)
	value := bsonValue(f.Value)
	switch f.Op {
	case domain.OpLessThan:
		return bson.M{path: bson.M{"$lt": value}}, nil
	case domain.OpGreaterThan:
		return bson.M{path: bson.M{"$gt": value}}, nil
	case domain.OpEqual:
		return bson.M{path: value}, nil
	default:
		return nil, domain.NewErrorf(domain.ErrCodePrecondition, "unsupported filter operator %q", f.Op)
	}
}

func bsonValue(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return primitive.NewDateTimeFromTime(v)
	case *time.Time:
		if v == nil {
			return nil
		}
		return primitive.NewDateTimeFromTime(*v)
	default:
		return value
	}
}
