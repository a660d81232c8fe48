// Package ingest turns raw source feed rows into validated cases. Rows are
// normalized with graceful degradation, then handed to the case controller in
// bulk; when the document store is down the normalized documents are spooled
// locally and drained later.
package ingest

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/internal/infrastructure/spool"
	"github.com/linelist/backend/usecase/cases"
)

// Upserter is the slice of the case controller ingestion depends on.
type Upserter interface {
	BatchUpsert(ctx context.Context, docs []map[string]interface{}) (*cases.UpsertResponse, error)
}

// Spooler queues normalized documents while storage is unavailable.
type Spooler interface {
	Enqueue(record spool.Record) error
}

// UseCase drives one ingestion run for a source.
type UseCase struct {
	normalizer *Normalizer
	upserter   Upserter
	spooler    Spooler
	logger     *zap.Logger
}

func New(normalizer *Normalizer, upserter Upserter, spooler Spooler, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		normalizer: normalizer,
		upserter:   upserter,
		spooler:    spooler,
		logger:     logger,
	}
}

// Report summarizes one ingestion run. RowErrors is keyed by the input row
// index.
type Report struct {
	NumCreated int            `json:"numCreated"`
	NumUpdated int            `json:"numUpdated"`
	NumSpooled int            `json:"numSpooled"`
	RowErrors  map[int]string `json:"rowErrors,omitempty"`
}

// SubmitBatch normalizes and upserts a batch of rows for the given source.
// Row-level failures (unparseable mandatory fields, validation) are reported
// per index without blocking the rest. A storage failure spools every
// normalized document for the retry processor instead of losing the batch.
func (uc *UseCase) SubmitBatch(ctx context.Context, sourceID string, rows []Row) (*Report, error) {
	if sourceID == "" {
		return nil, domain.NewError(domain.ErrCodePrecondition, "source id is required")
	}
	if len(rows) == 0 {
		return nil, domain.ErrEmptyBody
	}

	report := &Report{RowErrors: map[int]string{}}
	docs := make([]map[string]interface{}, 0, len(rows))
	rowIndex := make([]int, 0, len(rows))
	for i, row := range rows {
		doc, err := uc.normalizer.Normalize(ctx, sourceID, row)
		if err != nil {
			report.RowErrors[i] = err.Error()
			continue
		}
		docs = append(docs, doc)
		rowIndex = append(rowIndex, i)
	}
	if len(docs) == 0 {
		return report, nil
	}

	response, err := uc.upserter.BatchUpsert(ctx, docs)
	if err != nil {
		if !uc.spoolable(err) {
			return nil, err
		}
		spooled, spoolErr := uc.spoolBatch(sourceID, docs)
		report.NumSpooled = spooled
		if spoolErr != nil {
			return report, spoolErr
		}
		uc.logger.Warn("document store unavailable, batch spooled",
			zap.String("source_id", sourceID),
			zap.Int("spooled", spooled),
			zap.Error(err))
		return report, nil
	}

	report.NumCreated = response.NumCreated
	report.NumUpdated = response.NumUpdated
	for docIdx, message := range response.Errors {
		report.RowErrors[rowIndex[docIdx]] = message
	}
	return report, nil
}

// spoolable reports whether the upsert failure is a storage outage rather
// than bad input. Only internal errors are worth retrying later.
func (uc *UseCase) spoolable(err error) bool {
	if uc.spooler == nil {
		return false
	}
	return domain.IsDomainError(err, domain.ErrCodeInternal)
}

func (uc *UseCase) spoolBatch(sourceID string, docs []map[string]interface{}) (int, error) {
	spooled := 0
	for _, doc := range docs {
		payload, err := json.Marshal(doc)
		if err != nil {
			return spooled, err
		}
		if err := uc.spooler.Enqueue(spool.Record{SourceID: sourceID, Doc: payload}); err != nil {
			return spooled, err
		}
		spooled++
	}
	return spooled, nil
}
