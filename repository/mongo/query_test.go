package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linelist/backend/domain"
)

func TestTranslateAnything(t *testing.T) {
	query, err := TranslateFilter(domain.Anything{})
	require.NoError(t, err)
	assert.Equal(t, bson.M{}, query)
}

func TestTranslateEquality(t *testing.T) {
	query, err := TranslateFilter(domain.PropertyFilter{
		Path: "location.country", Op: domain.OpEqual, Value: "FR",
	})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"location.country": "FR"}, query)
}

func TestTranslateDateComparison(t *testing.T) {
	date := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	query, err := TranslateFilter(domain.PropertyFilter{
		Path: "confirmationDate", Op: domain.OpLessThan, Value: date,
	})
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"confirmationDate": bson.M{"$lt": primitive.NewDateTimeFromTime(date)},
	}, query)
}

func TestTranslateConjunction(t *testing.T) {
	query, err := TranslateFilter(domain.AndFilter{Filters: []domain.Filter{
		domain.PropertyFilter{Path: "location.country", Op: domain.OpEqual, Value: "FR"},
		domain.PropertyFilter{Path: "caseReference.status", Op: domain.OpEqual, Value: "VERIFIED"},
	}})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$and": bson.A{
		bson.M{"location.country": "FR"},
		bson.M{"caseReference.status": "VERIFIED"},
	}}, query)
}

func TestTranslateCustomFieldPath(t *testing.T) {
	// Declared fields live under the custom sub-document in storage, while
	// core paths are addressed as-is.
	query, err := TranslateFilter(domain.PropertyFilter{
		Path: "variant", Op: domain.OpEqual, Value: "omicron",
	})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"custom.variant": "omicron"}, query)
}

func TestTranslateUnsupportedOperator(t *testing.T) {
	// The same operator set as in-memory evaluation; anything else errors
	// instead of translating approximately.
	filter := domain.PropertyFilter{Path: "caseReference.sourceId", Op: "REGEX", Value: ".*"}
	_, err := TranslateFilter(filter)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodePrecondition))

	c := &domain.Case{CaseReference: &domain.CaseReference{SourceID: "s"}}
	_, evalErr := domain.Evaluate(filter, c)
	require.Error(t, evalErr)
	assert.Equal(t, evalErr.Error(), err.Error())
}
