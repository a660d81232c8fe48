package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryEmpty(t *testing.T) {
	f, err := ParseQuery("")
	require.NoError(t, err)
	assert.IsType(t, Anything{}, f)
	assert.True(t, MatchesEverything(f))
}

func TestParseQueryDateTerms(t *testing.T) {
	f, err := ParseQuery("dateconfirmedafter:2020-03-01")
	require.NoError(t, err)
	pf, ok := f.(PropertyFilter)
	require.True(t, ok)
	assert.Equal(t, "confirmationDate", pf.Path)
	assert.Equal(t, OpGreaterThan, pf.Op)
	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), pf.Value)

	f, err = ParseQuery("dateconfirmedbefore:2020-04-01")
	require.NoError(t, err)
	pf = f.(PropertyFilter)
	assert.Equal(t, OpLessThan, pf.Op)
}

func TestParseQueryEquality(t *testing.T) {
	f, err := ParseQuery("country:FR")
	require.NoError(t, err)
	assert.Equal(t, PropertyFilter{Path: "location.country", Op: OpEqual, Value: "FR"}, f)

	// Dotted keys pass through as literal paths.
	f, err = ParseQuery("demographics.sex:Female")
	require.NoError(t, err)
	assert.Equal(t, PropertyFilter{Path: "demographics.sex", Op: OpEqual, Value: "Female"}, f)
}

func TestParseQueryConjunction(t *testing.T) {
	f, err := ParseQuery("country:FR dateconfirmedbefore:2020-04-01 status:VERIFIED")
	require.NoError(t, err)
	and, ok := f.(AndFilter)
	require.True(t, ok)
	assert.Len(t, and.Filters, 3)
	assert.False(t, MatchesEverything(f))
}

func TestParseQueryQuotedValue(t *testing.T) {
	f, err := ParseQuery(`place:"New York"`)
	require.NoError(t, err)
	assert.Equal(t, PropertyFilter{Path: "location.locality", Op: OpEqual, Value: "New York"}, f)
}

func TestParseQueryRejections(t *testing.T) {
	for _, query := range []string{
		"badterm",
		"country:",
		":FR",
		"mystery:value",
		"dateconfirmedbefore:March",
		`place:"New York`,
	} {
		_, err := ParseQuery(query)
		require.Error(t, err, query)
		assert.True(t, IsDomainError(err, ErrCodePrecondition), query)
	}
}
