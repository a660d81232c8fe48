// Package cases implements the case controller: CRUD, batch operations and
// streaming export over the storage adapter. The controller is stateless
// between requests; all persisted state lives behind the adapter.
package cases

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/repository"
)

// SchemaProvider hands out the active schema snapshot.
type SchemaProvider interface {
	Current() *domain.Schema
}

// Controller orchestrates validation, filter parsing and storage operations.
type Controller struct {
	store           repository.CaseRepository
	schema          SchemaProvider
	outbreakDate    time.Time
	deleteThreshold int64
	logger          *zap.Logger
}

// New builds a controller. outbreakDate is the earliest acceptable
// confirmation date for this instance.
func New(store repository.CaseRepository, schema SchemaProvider, outbreakDate time.Time, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:        store,
		schema:       schema,
		outbreakDate: outbreakDate.UTC().Truncate(24 * time.Hour),
		logger:       logger,
	}
}

// WithDeleteThreshold sets the fallback cap for filter-based batch deletes,
// applied when a request does not carry its own threshold.
func (ctl *Controller) WithDeleteThreshold(threshold int64) *Controller {
	ctl.deleteThreshold = threshold
	return ctl
}

// GetCase returns the case with the given identifier.
func (ctl *Controller) GetCase(ctx context.Context, id string) (*domain.Case, error) {
	if id == "" {
		return nil, domain.NewError(domain.ErrCodePrecondition, "case id is required")
	}
	return ctl.store.CaseByID(ctx, id)
}

// ListResult is one page of cases. NextPage is zero when this is the last
// page.
type ListResult struct {
	Cases    []domain.Case
	NextPage int
	Total    int64
}

// ListCases returns a page of cases matching the textual filter query.
func (ctl *Controller) ListCases(ctx context.Context, page, limit int, query string) (*ListResult, error) {
	if page <= 0 {
		return nil, domain.NewErrorf(domain.ErrCodePrecondition, "page must be >= 1, got %d", page)
	}
	if limit <= 0 {
		return nil, domain.NewErrorf(domain.ErrCodePrecondition, "limit must be >= 1, got %d", limit)
	}
	filter, err := domain.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	cases, err := ctl.store.FetchCases(ctx, page, limit, filter)
	if err != nil {
		return nil, err
	}
	total, err := ctl.store.CountCases(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := &ListResult{Cases: cases, Total: total}
	if total > int64(page)*int64(limit) {
		result.NextPage = page + 1
	}
	return result, nil
}

// CreateCase validates the document and inserts numCases independent copies,
// each receiving its own identifier.
func (ctl *Controller) CreateCase(ctx context.Context, doc map[string]interface{}, numCases int) ([]domain.Case, error) {
	if numCases <= 0 {
		return nil, domain.NewErrorf(domain.ErrCodePrecondition, "numCases must be >= 1, got %d", numCases)
	}
	if len(doc) == 0 {
		return nil, domain.ErrEmptyBody
	}
	c, err := ctl.createCaseIfValid(doc)
	if err != nil {
		return nil, err
	}
	created := make([]domain.Case, 0, numCases)
	for i := 0; i < numCases; i++ {
		dup := c.Clone()
		dup.ID = ""
		if err := ctl.store.InsertCase(ctx, dup); err != nil {
			return created, domain.WrapError(domain.ErrCodeInternal, "inserting case", err)
		}
		created = append(created, *dup)
	}
	return created, nil
}

// createCaseIfValid constructs a case from the untyped document, validates it
// and checks the outbreak-date precondition.
func (ctl *Controller) createCaseIfValid(doc map[string]interface{}) (*domain.Case, error) {
	schema := ctl.schema.Current()
	c, err := domain.CaseFromDoc(doc, schema)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(schema); err != nil {
		return nil, err
	}
	if c.ConfirmationDate.Before(ctl.outbreakDate) {
		return nil, domain.NewErrorf(domain.ErrCodeValidation,
			"confirmation date %s predates the outbreak start %s",
			c.ConfirmationDate.Format("2006-01-02"), ctl.outbreakDate.Format("2006-01-02"))
	}
	return c, nil
}

// UpsertResponse is the batch-upsert outcome: per-index error messages for
// invalid cases alongside the counts for the valid ones.
type UpsertResponse struct {
	NumCreated int            `json:"numCreated"`
	NumUpdated int            `json:"numUpdated"`
	Errors     map[int]string `json:"errors,omitempty"`
}

// BatchUpsert validates every case independently: a failure in one does not
// block the others. All valid cases go to storage in a single call; invalid
// ones are reported by input index.
func (ctl *Controller) BatchUpsert(ctx context.Context, docs []map[string]interface{}) (*UpsertResponse, error) {
	if len(docs) == 0 {
		return nil, domain.ErrEmptyBody
	}
	response := &UpsertResponse{Errors: map[int]string{}}
	valid := make([]domain.Case, 0, len(docs))
	for i, doc := range docs {
		c, err := ctl.createCaseIfValid(doc)
		if err != nil {
			response.Errors[i] = err.Error()
			continue
		}
		valid = append(valid, *c)
	}
	if len(valid) > 0 {
		result, err := ctl.store.BatchUpsert(ctx, valid)
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "batch upsert", err)
		}
		response.NumCreated = result.NumCreated
		response.NumUpdated = result.NumUpdated
	}
	return response, nil
}

// ExcludedCaseIDs returns the identifiers of every case for the source
// currently in EXCLUDED status matching the additional filter query.
func (ctl *Controller) ExcludedCaseIDs(ctx context.Context, sourceID, query string) ([]string, error) {
	if sourceID == "" {
		return nil, domain.NewError(domain.ErrCodePrecondition, "source id is required")
	}
	filter, err := domain.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	excluded, err := ctl.store.ExcludedCases(ctx, sourceID, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(excluded))
	for _, c := range excluded {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// DeleteCase removes one case by identifier.
func (ctl *Controller) DeleteCase(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewError(domain.ErrCodePrecondition, "case id is required")
	}
	return ctl.store.DeleteCase(ctx, id)
}

// Target selects the cases a bulk operation applies to: either a filter
// query (which may be empty, matching everything) or an explicit id list,
// never both.
type Target struct {
	Query   *string
	CaseIDs []string
}

// filter enforces the filter-XOR-ids contract shared by download, batch
// status change and batch delete. Returns a nil filter when the target is an
// id list.
func (t Target) filter() (domain.Filter, error) {
	hasQuery := t.Query != nil
	hasIDs := len(t.CaseIDs) > 0
	if hasQuery == hasIDs {
		return nil, domain.NewError(domain.ErrCodePrecondition,
			"exactly one of a filter query or a case id list must be given")
	}
	if hasIDs {
		return nil, nil
	}
	return domain.ParseQuery(*t.Query)
}
