package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/internal/infrastructure/spool"
	"github.com/linelist/backend/usecase/cases"
)

type fakeUpserter struct {
	response *cases.UpsertResponse
	err      error
	received [][]map[string]interface{}
}

func (f *fakeUpserter) BatchUpsert(_ context.Context, docs []map[string]interface{}) (*cases.UpsertResponse, error) {
	f.received = append(f.received, docs)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakeSpooler struct {
	records []spool.Record
	err     error
}

func (f *fakeSpooler) Enqueue(record spool.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func rows() []Row {
	return []Row{
		{"dateConfirmed": "14.03.2020"},
		{"age": "30"},
		{"dateConfirmed": "15.03.2020"},
	}
}

func TestSubmitBatchReportsRowErrorsByInputIndex(t *testing.T) {
	upserter := &fakeUpserter{response: &cases.UpsertResponse{
		NumCreated: 1,
		NumUpdated: 1,
		Errors:     map[int]string{},
	}}
	uc := New(NewNormalizer(franceGeocoder(), nil), upserter, &fakeSpooler{}, nil)

	report, err := uc.SubmitBatch(context.Background(), "source-1", rows())
	require.NoError(t, err)

	assert.Equal(t, 1, report.NumCreated)
	assert.Equal(t, 1, report.NumUpdated)
	// The middle row failed normalization; the storage-side indices of
	// the remaining docs map back onto input indices 0 and 2.
	require.Contains(t, report.RowErrors, 1)
	assert.NotContains(t, report.RowErrors, 0)
	assert.NotContains(t, report.RowErrors, 2)

	require.Len(t, upserter.received, 1)
	assert.Len(t, upserter.received[0], 2)
}

func TestSubmitBatchMapsUpsertErrorsToInputIndices(t *testing.T) {
	upserter := &fakeUpserter{response: &cases.UpsertResponse{
		NumCreated: 1,
		Errors:     map[int]string{1: "rejected"},
	}}
	uc := New(NewNormalizer(franceGeocoder(), nil), upserter, &fakeSpooler{}, nil)

	report, err := uc.SubmitBatch(context.Background(), "source-1", rows())
	require.NoError(t, err)

	// Doc index 1 is the third input row (row 1 failed normalization).
	assert.Contains(t, report.RowErrors, 1)
	assert.Equal(t, "rejected", report.RowErrors[2])
}

func TestSubmitBatchSpoolsOnStorageOutage(t *testing.T) {
	upserter := &fakeUpserter{err: domain.WrapError(domain.ErrCodeInternal, "store down", assert.AnError)}
	spooler := &fakeSpooler{}
	uc := New(NewNormalizer(franceGeocoder(), nil), upserter, spooler, nil)

	report, err := uc.SubmitBatch(context.Background(), "source-1", rows())
	require.NoError(t, err)

	assert.Equal(t, 2, report.NumSpooled)
	require.Len(t, spooler.records, 2)
	assert.Equal(t, "source-1", spooler.records[0].SourceID)
	assert.NotEmpty(t, spooler.records[0].Doc)
}

func TestSubmitBatchDoesNotSpoolValidationFailures(t *testing.T) {
	upserter := &fakeUpserter{err: domain.NewError(domain.ErrCodeValidation, "bad batch")}
	spooler := &fakeSpooler{}
	uc := New(NewNormalizer(franceGeocoder(), nil), upserter, spooler, nil)

	_, err := uc.SubmitBatch(context.Background(), "source-1", rows())
	require.Error(t, err)
	assert.Empty(t, spooler.records)
}

func TestSubmitBatchPreconditions(t *testing.T) {
	uc := New(NewNormalizer(franceGeocoder(), nil), &fakeUpserter{}, &fakeSpooler{}, nil)

	_, err := uc.SubmitBatch(context.Background(), "", rows())
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodePrecondition))

	_, err = uc.SubmitBatch(context.Background(), "source-1", nil)
	require.Error(t, err)
}

func TestSubmitBatchAllRowsInvalid(t *testing.T) {
	upserter := &fakeUpserter{}
	uc := New(NewNormalizer(franceGeocoder(), nil), upserter, &fakeSpooler{}, nil)

	report, err := uc.SubmitBatch(context.Background(), "source-1", []Row{{"age": "30"}})
	require.NoError(t, err)
	assert.Len(t, report.RowErrors, 1)
	assert.Empty(t, upserter.received, "nothing to store, storage never called")
}
