package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linelist/backend/domain"
)

func newCase(t *testing.T, sourceID, entryID string, day int) domain.Case {
	t.Helper()
	doc := map[string]interface{}{
		"confirmationDate": fmt.Sprintf("2020-03-%02d", day),
		"caseReference": map[string]interface{}{
			"sourceId": sourceID,
			"status":   "UNVERIFIED",
		},
	}
	if entryID != "" {
		doc["caseReference"].(map[string]interface{})["sourceEntryId"] = entryID
	}
	c, err := domain.CaseFromDoc(doc, nil)
	require.NoError(t, err)
	return *c
}

func TestInsertAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	c := newCase(t, "s1", "", 1)
	require.NoError(t, store.InsertCase(ctx, &c))
	require.NotEmpty(t, c.ID)

	got, err := store.CaseByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = store.CaseByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)
}

func TestFetchCasesPagination(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for day := 1; day <= 5; day++ {
		c := newCase(t, "s1", "", day)
		require.NoError(t, store.InsertCase(ctx, &c))
	}

	page1, err := store.FetchCases(ctx, 1, 2, domain.Anything{})
	require.NoError(t, err)
	page2, err := store.FetchCases(ctx, 2, 2, domain.Anything{})
	require.NoError(t, err)
	page3, err := store.FetchCases(ctx, 3, 2, domain.Anything{})
	require.NoError(t, err)
	page4, err := store.FetchCases(ctx, 4, 2, domain.Anything{})
	require.NoError(t, err)

	assert.Len(t, page1, 2)
	assert.Len(t, page2, 2)
	assert.Len(t, page3, 1)
	assert.Empty(t, page4)

	// Pages partition the result set without overlap.
	seen := map[string]bool{}
	for _, page := range [][]domain.Case{page1, page2, page3} {
		for _, c := range page {
			assert.False(t, seen[c.ID])
			seen[c.ID] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestBatchUpsertNaturalKey(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := newCase(t, "s1", "e1", 1)
	second := newCase(t, "s1", "e2", 2)
	result, err := store.BatchUpsert(ctx, []domain.Case{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, result.NumCreated)
	assert.Equal(t, 0, result.NumUpdated)

	// Same (sourceId, sourceEntryId) updates in place instead of duplicating.
	replacement := newCase(t, "s1", "e1", 9)
	result, err = store.BatchUpsert(ctx, []domain.Case{replacement})
	require.NoError(t, err)
	assert.Equal(t, 0, result.NumCreated)
	assert.Equal(t, 1, result.NumUpdated)

	total, err := store.CountCases(ctx, domain.Anything{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// A case without an entry id never matches a natural key.
	anonymous := newCase(t, "s1", "", 3)
	result, err = store.BatchUpsert(ctx, []domain.Case{anonymous})
	require.NoError(t, err)
	assert.Equal(t, 1, result.NumCreated)
}

func TestUpdateCase(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	c := newCase(t, "s1", "", 1)
	require.NoError(t, store.InsertCase(ctx, &c))

	update := domain.NewDocumentUpdate()
	require.NoError(t, update.Set("location.country", "FR"))
	require.NoError(t, store.UpdateCase(ctx, c.ID, update))

	got, err := store.CaseByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.Equal(t, "FR", got.Location.Country)

	assert.ErrorIs(t, store.UpdateCase(ctx, "missing", update), domain.ErrCaseNotFound)
}

func TestBatchUpdate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	a := newCase(t, "s1", "", 1)
	b := newCase(t, "s1", "", 2)
	require.NoError(t, store.InsertCase(ctx, &a))
	require.NoError(t, store.InsertCase(ctx, &b))

	updateA := domain.NewDocumentUpdate()
	require.NoError(t, updateA.Set("caseReference.status", "VERIFIED"))
	updateB := domain.NewDocumentUpdate()
	require.NoError(t, updateB.Set("caseReference.status", "PENDING"))

	modified, err := store.BatchUpdate(ctx, map[string]*domain.DocumentUpdate{
		a.ID: updateA,
		b.ID: updateB,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, modified)

	got, err := store.CaseByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, got.CaseReference.Status)
}

func TestDeleteCases(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	fr := newCase(t, "s1", "", 1)
	fr.Location = &domain.Location{Country: "FR"}
	de := newCase(t, "s1", "", 2)
	de.Location = &domain.Location{Country: "DE"}
	require.NoError(t, store.InsertCase(ctx, &fr))
	require.NoError(t, store.InsertCase(ctx, &de))

	deleted, err := store.DeleteCases(ctx, domain.PropertyFilter{
		Path: "location.country", Op: domain.OpEqual, Value: "FR",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	total, err := store.CountCases(ctx, domain.Anything{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestMatchingCasesIterator(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for day := 1; day <= 3; day++ {
		c := newCase(t, "s1", "", day)
		require.NoError(t, store.InsertCase(ctx, &c))
	}

	it, err := store.MatchingCases(ctx, domain.Anything{})
	require.NoError(t, err)
	var count int
	for it.Next(ctx) {
		require.NotNil(t, it.Case())
		count++
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close(ctx))
	assert.Equal(t, 3, count)
}

func TestExcludedCases(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	excluded := newCase(t, "s1", "", 1)
	excluded.CaseReference.Status = domain.StatusExcluded
	excluded.CaseExclusion = &domain.CaseExclusion{Note: "duplicate"}
	verified := newCase(t, "s1", "", 2)
	verified.CaseReference.Status = domain.StatusVerified
	otherSource := newCase(t, "s2", "", 3)
	otherSource.CaseReference.Status = domain.StatusExcluded
	otherSource.CaseExclusion = &domain.CaseExclusion{Note: "noise"}

	for _, c := range []*domain.Case{&excluded, &verified, &otherSource} {
		require.NoError(t, store.InsertCase(ctx, c))
	}

	got, err := store.ExcludedCases(ctx, "s1", domain.Anything{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, excluded.ID, got[0].ID)
}

func TestFillMissingField(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	bare := newCase(t, "s1", "", 1)
	carrying := newCase(t, "s1", "", 2)
	carrying.Custom = map[string]interface{}{"variant": "alpha"}
	require.NoError(t, store.InsertCase(ctx, &bare))
	require.NoError(t, store.InsertCase(ctx, &carrying))

	filled, err := store.FillMissingField(ctx, "variant", "unknown")
	require.NoError(t, err)
	assert.EqualValues(t, 1, filled)

	got, err := store.CaseByID(ctx, bare.ID)
	require.NoError(t, err)
	assert.Equal(t, "unknown", got.Custom["variant"])

	kept, err := store.CaseByID(ctx, carrying.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", kept.Custom["variant"])
}

func TestAddFieldConflict(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	field := domain.Field{Key: "variant", Type: domain.FieldTypeString}
	require.NoError(t, store.AddField(ctx, field))
	err := store.AddField(ctx, field)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	fields, err := store.CaseFields(ctx)
	require.NoError(t, err)
	assert.Len(t, fields, 1)
}

func TestIteratorStopsOnCancelledContext(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	c := newCase(t, "s1", "", 1)
	require.NoError(t, store.InsertCase(ctx, &c))

	it, err := store.MatchingCases(ctx, domain.Anything{})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, it.Next(cancelled))
}

func TestCaseByIDReturnsCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	c := newCase(t, "s1", "", 1)
	require.NoError(t, store.InsertCase(ctx, &c))

	got, err := store.CaseByID(ctx, c.ID)
	require.NoError(t, err)
	got.CaseReference.SourceID = "tampered"

	again, err := store.CaseByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "s1", again.CaseReference.SourceID)
}
