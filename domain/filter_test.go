package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func filterTestCase(t *testing.T) *Case {
	t.Helper()
	doc := validDoc()
	doc["location"] = map[string]interface{}{"country": "FR"}
	doc["demographics"] = map[string]interface{}{"ageStart": 25.0, "ageEnd": 25.0}
	c, err := CaseFromDoc(doc, nil)
	require.NoError(t, err)
	return c
}

func TestEvaluateAnything(t *testing.T) {
	match, err := Evaluate(Anything{}, filterTestCase(t))
	require.NoError(t, err)
	assert.True(t, match)
}

func TestEvaluateEquality(t *testing.T) {
	c := filterTestCase(t)

	match, err := Evaluate(PropertyFilter{Path: "location.country", Op: OpEqual, Value: "FR"}, c)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = Evaluate(PropertyFilter{Path: "location.country", Op: OpEqual, Value: "DE"}, c)
	require.NoError(t, err)
	assert.False(t, match)

	// Status compares as a string even though the field is typed.
	match, err = Evaluate(PropertyFilter{Path: "caseReference.status", Op: OpEqual, Value: "UNVERIFIED"}, c)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestEvaluateDateComparison(t *testing.T) {
	c := filterTestCase(t)

	match, err := Evaluate(PropertyFilter{
		Path: "confirmationDate", Op: OpLessThan,
		Value: time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
	}, c)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = Evaluate(PropertyFilter{
		Path: "confirmationDate", Op: OpGreaterThan,
		Value: time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
	}, c)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestEvaluateBSONDateValues(t *testing.T) {
	c := filterTestCase(t)
	c.Custom = map[string]interface{}{
		"vaccinationDate": primitive.NewDateTimeFromTime(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)),
	}

	match, err := Evaluate(PropertyFilter{
		Path:  "vaccinationDate",
		Op:    OpGreaterThan,
		Value: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}, c)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestEvaluateNumberComparison(t *testing.T) {
	c := filterTestCase(t)

	match, err := Evaluate(PropertyFilter{Path: "demographics.ageStart", Op: OpGreaterThan, Value: 18}, c)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestEvaluateMissingPathNeverMatches(t *testing.T) {
	c := filterTestCase(t)
	match, err := Evaluate(PropertyFilter{Path: "caseExclusion.note", Op: OpEqual, Value: "x"}, c)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestEvaluateConjunction(t *testing.T) {
	c := filterTestCase(t)
	and := AndFilter{Filters: []Filter{
		PropertyFilter{Path: "location.country", Op: OpEqual, Value: "FR"},
		PropertyFilter{Path: "caseReference.sourceId", Op: OpEqual, Value: "source-1"},
	}}
	match, err := Evaluate(and, c)
	require.NoError(t, err)
	assert.True(t, match)

	and.Filters = append(and.Filters, PropertyFilter{Path: "location.country", Op: OpEqual, Value: "DE"})
	match, err = Evaluate(and, c)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestEvaluateUnsupportedOperator(t *testing.T) {
	_, err := Evaluate(PropertyFilter{Path: "location.country", Op: "REGEX", Value: ".*"}, filterTestCase(t))
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodePrecondition))
}

func TestEvaluateIncomparableTypes(t *testing.T) {
	_, err := Evaluate(PropertyFilter{Path: "confirmationDate", Op: OpEqual, Value: 42}, filterTestCase(t))
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeValidation))
}

func TestMatchesEverything(t *testing.T) {
	assert.True(t, MatchesEverything(Anything{}))
	assert.True(t, MatchesEverything(AndFilter{Filters: []Filter{Anything{}, Anything{}}}))
	assert.False(t, MatchesEverything(PropertyFilter{Path: "p", Op: OpEqual, Value: 1}))
	assert.False(t, MatchesEverything(AndFilter{Filters: []Filter{
		Anything{},
		PropertyFilter{Path: "p", Op: OpEqual, Value: 1},
	}}))
}
