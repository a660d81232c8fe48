package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentUpdateFromDoc(t *testing.T) {
	update, err := DocumentUpdateFromDoc(map[string]interface{}{
		"caseReference": map[string]interface{}{
			"status": "VERIFIED",
		},
		"demographics": map[string]interface{}{
			"sex":      "Female",
			"ageStart": nil,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []PathValue{
		{Path: "caseReference.status", Value: "VERIFIED"},
		{Path: "demographics.sex", Value: "Female"},
	}, update.Sets())
	assert.Equal(t, []string{"demographics.ageStart"}, update.Unsets())
	assert.Equal(t, 3, update.Len())
	assert.False(t, update.IsEmpty())
}

func TestDocumentUpdateNullIsRemoveSentinel(t *testing.T) {
	update, err := DocumentUpdateFromDoc(map[string]interface{}{
		"caseExclusion": nil,
	})
	require.NoError(t, err)
	assert.Empty(t, update.Sets())
	assert.Equal(t, []string{"caseExclusion"}, update.Unsets())
}

func TestDocumentUpdateDuplicatePath(t *testing.T) {
	update := NewDocumentUpdate()
	require.NoError(t, update.Set("location.country", "FR"))

	err := update.Set("location.country", "DE")
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeValidation))

	err = update.Unset("location.country")
	require.Error(t, err)
}

func TestDocumentUpdateEmpty(t *testing.T) {
	update := NewDocumentUpdate()
	assert.True(t, update.IsEmpty())
	assert.Zero(t, update.Len())

	err := update.Set("", 1)
	require.Error(t, err)
}
