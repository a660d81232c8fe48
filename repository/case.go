package repository

import (
	"context"

	"github.com/linelist/backend/domain"
)

// CaseIterator is a lazy, single-pass, finite sequence of cases backed by a
// storage cursor. Close releases the cursor; callers must close even after
// early termination.
type CaseIterator interface {
	Next(ctx context.Context) bool
	Case() *domain.Case
	Err() error
	Close(ctx context.Context) error
}

// UpsertResult reports a batch upsert outcome.
type UpsertResult struct {
	NumCreated int
	NumUpdated int
}

// CaseRepository is the storage adapter capability the case controller
// consumes. Implementations must make an insert visible to the very next
// count; the controller imposes no concurrency control of its own.
type CaseRepository interface {
	// CaseByID returns the case or domain.ErrCaseNotFound.
	CaseByID(ctx context.Context, id string) (*domain.Case, error)
	// FetchCases returns one page (1-based) of cases matching the filter.
	FetchCases(ctx context.Context, page, limit int, filter domain.Filter) ([]domain.Case, error)
	// CountCases counts all cases matching the filter.
	CountCases(ctx context.Context, filter domain.Filter) (int64, error)
	// InsertCase stores a new case and assigns its identifier.
	InsertCase(ctx context.Context, c *domain.Case) error
	// BatchUpsert inserts or updates cases keyed on (sourceId, sourceEntryId);
	// cases without a source entry id are always inserted.
	BatchUpsert(ctx context.Context, cases []domain.Case) (UpsertResult, error)
	// UpdateCase applies a partial update to one case.
	UpdateCase(ctx context.Context, id string, update *domain.DocumentUpdate) error
	// BatchUpdate applies pre-validated updates in one storage call and
	// returns the number of modified cases.
	BatchUpdate(ctx context.Context, updates map[string]*domain.DocumentUpdate) (int64, error)
	// DeleteCase removes one case or returns domain.ErrCaseNotFound.
	DeleteCase(ctx context.Context, id string) error
	// DeleteCases removes every case matching the filter.
	DeleteCases(ctx context.Context, filter domain.Filter) (int64, error)
	// MatchingCases streams cases matching the filter.
	MatchingCases(ctx context.Context, filter domain.Filter) (CaseIterator, error)
	// CasesByID streams the cases with the given identifiers.
	CasesByID(ctx context.Context, ids []string) (CaseIterator, error)
	// ExcludedCases lists cases for a source in EXCLUDED status matching the
	// additional filter.
	ExcludedCases(ctx context.Context, sourceID string, filter domain.Filter) ([]domain.Case, error)
	// FillMissingField assigns value to every stored case lacking the field.
	// Used when a required field is declared with a default.
	FillMissingField(ctx context.Context, key string, value interface{}) (int64, error)
}

// FieldRepository persists schema field declarations so the running schema
// can be rebuilt at startup.
type FieldRepository interface {
	// AddField appends a field declaration.
	AddField(ctx context.Context, field domain.Field) error
	// CaseFields returns all declarations in original declaration order.
	CaseFields(ctx context.Context) ([]domain.Field, error)
}
