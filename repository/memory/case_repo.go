// Package memory implements the storage adapter against process memory. It
// backs tests and local development; semantics mirror the document store.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/repository"
)

// Store is the in-memory storage adapter. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	cases  map[string]*domain.Case
	order  []string
	fields []domain.Field
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{cases: map[string]*domain.Case{}}
}

func (s *Store) CaseByID(ctx context.Context, id string) (*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, domain.ErrCaseNotFound
	}
	return c.Clone(), nil
}

func (s *Store) FetchCases(ctx context.Context, page, limit int, filter domain.Filter) ([]domain.Case, error) {
	matched, err := s.matching(filter)
	if err != nil {
		return nil, err
	}
	skip := (page - 1) * limit
	if skip >= len(matched) {
		return nil, nil
	}
	end := skip + limit
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]domain.Case, 0, end-skip)
	for _, c := range matched[skip:end] {
		out = append(out, *c.Clone())
	}
	return out, nil
}

func (s *Store) CountCases(ctx context.Context, filter domain.Filter) (int64, error) {
	matched, err := s.matching(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (s *Store) InsertCase(ctx context.Context, c *domain.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(c)
}

func (s *Store) insertLocked(c *domain.Case) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := s.cases[c.ID]; exists {
		return domain.NewErrorf(domain.ErrCodeConflict, "case %q already exists", c.ID)
	}
	s.cases[c.ID] = c.Clone()
	s.order = append(s.order, c.ID)
	return nil
}

func (s *Store) BatchUpsert(ctx context.Context, cases []domain.Case) (repository.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result repository.UpsertResult
	for i := range cases {
		c := cases[i]
		if existing := s.findByNaturalKeyLocked(&c); existing != "" {
			c.ID = existing
			s.cases[existing] = c.Clone()
			result.NumUpdated++
			continue
		}
		if err := s.insertLocked(&c); err != nil {
			return result, err
		}
		result.NumCreated++
	}
	return result, nil
}

func (s *Store) findByNaturalKeyLocked(c *domain.Case) string {
	if c.CaseReference == nil || c.CaseReference.SourceEntryID == "" {
		return ""
	}
	for _, id := range s.order {
		existing := s.cases[id]
		if existing.CaseReference == nil {
			continue
		}
		if existing.CaseReference.SourceID == c.CaseReference.SourceID &&
			existing.CaseReference.SourceEntryID == c.CaseReference.SourceEntryID {
			return id
		}
	}
	return ""
}

func (s *Store) UpdateCase(ctx context.Context, id string, update *domain.DocumentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, update)
}

func (s *Store) updateLocked(id string, update *domain.DocumentUpdate) error {
	existing, ok := s.cases[id]
	if !ok {
		return domain.ErrCaseNotFound
	}
	schema, err := domain.NewSchema(s.fields...)
	if err != nil {
		return err
	}
	updated, err := existing.UpdatedDocument(update, schema)
	if err != nil {
		return err
	}
	updated.ID = id
	s.cases[id] = updated
	return nil
}

func (s *Store) BatchUpdate(ctx context.Context, updates map[string]*domain.DocumentUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var modified int64
	for id, update := range updates {
		if update.IsEmpty() {
			continue
		}
		if err := s.updateLocked(id, update); err != nil {
			return modified, err
		}
		modified++
	}
	return modified, nil
}

func (s *Store) DeleteCase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[id]; !ok {
		return domain.ErrCaseNotFound
	}
	delete(s.cases, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) DeleteCases(ctx context.Context, filter domain.Filter) (int64, error) {
	matched, err := s.matching(filter)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for _, c := range matched {
		if _, ok := s.cases[c.ID]; !ok {
			continue
		}
		delete(s.cases, c.ID)
		deleted++
	}
	remaining := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.cases[id]; ok {
			remaining = append(remaining, id)
		}
	}
	s.order = remaining
	return deleted, nil
}

func (s *Store) MatchingCases(ctx context.Context, filter domain.Filter) (repository.CaseIterator, error) {
	matched, err := s.matching(filter)
	if err != nil {
		return nil, err
	}
	return &sliceIterator{cases: matched}, nil
}

func (s *Store) CasesByID(ctx context.Context, ids []string) (repository.CaseIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Case, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.cases[id]; ok {
			out = append(out, c.Clone())
		}
	}
	return &sliceIterator{cases: out}, nil
}

func (s *Store) ExcludedCases(ctx context.Context, sourceID string, filter domain.Filter) ([]domain.Case, error) {
	matched, err := s.matching(filter)
	if err != nil {
		return nil, err
	}
	var out []domain.Case
	for _, c := range matched {
		if c.CaseReference == nil || c.CaseReference.SourceID != sourceID {
			continue
		}
		if c.CaseReference.Status != domain.StatusExcluded {
			continue
		}
		out = append(out, *c.Clone())
	}
	return out, nil
}

func (s *Store) FillMissingField(ctx context.Context, key string, value interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var filled int64
	for _, id := range s.order {
		c := s.cases[id]
		if existing, present := c.Custom[key]; present && existing != nil {
			continue
		}
		if c.Custom == nil {
			c.Custom = map[string]interface{}{}
		}
		c.Custom[key] = value
		filled++
	}
	return filled, nil
}

func (s *Store) AddField(ctx context.Context, field domain.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.fields {
		if existing.Key == field.Key {
			return domain.NewErrorf(domain.ErrCodeConflict, "field %q is already declared", field.Key)
		}
	}
	s.fields = append(s.fields, field)
	return nil
}

func (s *Store) CaseFields(ctx context.Context) ([]domain.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Field, len(s.fields))
	copy(out, s.fields)
	return out, nil
}

// matching snapshots the cases satisfying the filter, in insertion order.
func (s *Store) matching(filter domain.Filter) ([]*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)

	var out []*domain.Case
	for _, id := range ids {
		c := s.cases[id]
		match, err := domain.Evaluate(filter, c)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

type sliceIterator struct {
	cases   []*domain.Case
	current *domain.Case
	closed  bool
}

func (it *sliceIterator) Next(ctx context.Context) bool {
	if it.closed || len(it.cases) == 0 {
		return false
	}
	if err := ctx.Err(); err != nil {
		return false
	}
	it.current = it.cases[0]
	it.cases = it.cases[1:]
	return true
}

func (it *sliceIterator) Case() *domain.Case {
	return it.current
}

func (it *sliceIterator) Err() error {
	return nil
}

func (it *sliceIterator) Close(ctx context.Context) error {
	it.closed = true
	it.cases = nil
	return nil
}
