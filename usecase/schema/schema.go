// Package schema manages the runtime-declared case fields as immutable
// versioned snapshots. Declarations are persisted and replayed at startup so
// the in-memory case shape survives restarts.
package schema

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/repository"
)

// Registry holds the current schema snapshot. AddField is the only mutation;
// concurrent schema changes during live traffic are expected to be serialized
// externally (a deploy-time migration step), the mutex only keeps the
// snapshot swap itself consistent.
type Registry struct {
	fields repository.FieldRepository
	cases  repository.CaseRepository
	logger *zap.Logger

	mu      sync.RWMutex
	current *domain.Schema
}

// New builds a registry with an empty snapshot; call Load to replay persisted
// declarations.
func New(fields repository.FieldRepository, cases repository.CaseRepository, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		fields:  fields,
		cases:   cases,
		logger:  logger,
		current: domain.EmptySchema(),
	}
}

// Load replays all persisted field declarations in original declaration
// order, rebuilding the snapshot.
func (r *Registry) Load(ctx context.Context) error {
	declared, err := r.fields.CaseFields(ctx)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "loading schema fields", err)
	}
	snapshot, err := domain.NewSchema(declared...)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.current = snapshot
	r.mu.Unlock()
	r.logger.Info("schema loaded", zap.Int("fields", snapshot.Len()))
	return nil
}

// Current returns the active snapshot.
func (r *Registry) Current() *domain.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// AddField declares a new case field. Redeclaring an existing name fails with
// a conflict. Declaring a required field with a default retroactively fills
// the default onto every stored case lacking the field, so existing data
// stays valid under the new snapshot.
func (r *Registry) AddField(ctx context.Context, field domain.Field) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := r.current.WithField(field)
	if err != nil {
		return err
	}
	if err := r.fields.AddField(ctx, field); err != nil {
		return err
	}
	if field.Required && field.Default != nil {
		filled, err := r.cases.FillMissingField(ctx, field.Key, field.Default)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "backfilling field default", err)
		}
		r.logger.Info("backfilled field default",
			zap.String("field", field.Key),
			zap.Int64("cases", filled))
	}
	r.current = next
	return nil
}
