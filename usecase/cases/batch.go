package cases

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/repository"
)

// BatchStatusChange moves every targeted case to the given curation status.
// Excluding cases requires a note; the exclusion metadata is written (or
// cleared) alongside the status so the aggregate invariant holds.
func (ctl *Controller) BatchStatusChange(ctx context.Context, status, note string, target Target) error {
	parsed, err := domain.ParseCurationStatus(status)
	if err != nil {
		return err
	}
	if parsed == domain.StatusExcluded && note == "" {
		return domain.NewError(domain.ErrCodeValidation, "excluding cases requires a note")
	}

	update := domain.NewDocumentUpdate()
	if err := update.Set("caseReference.status", string(parsed)); err != nil {
		return err
	}
	if parsed == domain.StatusExcluded {
		now := time.Now().UTC().Truncate(24 * time.Hour)
		if err := update.Set("caseExclusion.note", note); err != nil {
			return err
		}
		if err := update.Set("caseExclusion.date", now); err != nil {
			return err
		}
	} else {
		if err := update.Unset("caseExclusion"); err != nil {
			return err
		}
	}

	filter, err := target.filter()
	if err != nil {
		return err
	}

	var it repository.CaseIterator
	if filter != nil {
		it, err = ctl.store.MatchingCases(ctx, filter)
	} else {
		it, err = ctl.resolveIDs(ctx, target.CaseIDs)
	}
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := it.Close(ctx); closeErr != nil {
			ctl.logger.Warn("closing case iterator", zap.Error(closeErr))
		}
	}()

	for it.Next(ctx) {
		if err := ctl.store.UpdateCase(ctx, it.Case().ID, update); err != nil {
			return err
		}
	}
	return it.Err()
}

// resolveIDs verifies that every referenced case exists before streaming
// them, so a status change over an id list never half-applies against a
// typo'd identifier.
func (ctl *Controller) resolveIDs(ctx context.Context, ids []string) (repository.CaseIterator, error) {
	for _, id := range ids {
		if _, err := ctl.store.CaseByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return ctl.store.CasesByID(ctx, ids)
}

// BatchUpdate applies partial updates to many cases. Every update must carry
// an identifier, reference an existing case, and leave that case valid; all
// of this is checked before any write, then committed in one storage call.
func (ctl *Controller) BatchUpdate(ctx context.Context, docs []map[string]interface{}) (int64, error) {
	if len(docs) == 0 {
		return 0, domain.ErrEmptyBody
	}
	schema := ctl.schema.Current()
	updates := make(map[string]*domain.DocumentUpdate, len(docs))
	for i, doc := range docs {
		id, ok := updateID(doc)
		if !ok {
			return 0, domain.NewErrorf(domain.ErrCodePrecondition, "update at index %d carries no case id", i)
		}
		body := make(map[string]interface{}, len(doc))
		for key, value := range doc {
			if key == "_id" || key == "id" {
				continue
			}
			body[key] = value
		}
		update, err := domain.DocumentUpdateFromDoc(body)
		if err != nil {
			return 0, err
		}
		if update.IsEmpty() {
			continue
		}
		existing, err := ctl.store.CaseByID(ctx, id)
		if err != nil {
			return 0, domain.WrapError(domain.ErrCodeNotFound,
				fmt.Sprintf("update at index %d references a missing case", i), err)
		}
		if _, err := existing.UpdatedDocument(update, schema); err != nil {
			return 0, domain.WrapError(domain.ErrCodeValidation,
				fmt.Sprintf("update at index %d would leave case %s invalid", i, id), err)
		}
		updates[id] = update
	}
	if len(updates) == 0 {
		return 0, nil
	}
	modified, err := ctl.store.BatchUpdate(ctx, updates)
	if err != nil {
		return modified, domain.WrapError(domain.ErrCodeInternal, "batch update", err)
	}
	return modified, nil
}

// BatchDelete removes the targeted cases. Deleting by filter refuses the
// match-everything filter, and refuses when the predicted number of affected
// cases exceeds the caller's threshold.
func (ctl *Controller) BatchDelete(ctx context.Context, target Target, threshold int64) (int64, error) {
	filter, err := target.filter()
	if err != nil {
		return 0, err
	}

	if filter == nil {
		var deleted int64
		for _, id := range target.CaseIDs {
			if err := ctl.store.DeleteCase(ctx, id); err != nil {
				return deleted, err
			}
			deleted++
		}
		return deleted, nil
	}

	if domain.MatchesEverything(filter) {
		return 0, domain.NewError(domain.ErrCodeValidation,
			"refusing to delete by a filter that matches every case")
	}
	if threshold <= 0 {
		threshold = ctl.deleteThreshold
	}
	if threshold > 0 {
		count, err := ctl.store.CountCases(ctx, filter)
		if err != nil {
			return 0, err
		}
		if count > threshold {
			return 0, domain.NewErrorf(domain.ErrCodeValidation,
				"filter matches %d cases, above the threshold of %d; nothing deleted", count, threshold)
		}
	}
	return ctl.store.DeleteCases(ctx, filter)
}

func updateID(doc map[string]interface{}) (string, bool) {
	for _, key := range []string{"_id", "id"} {
		if raw, ok := doc[key]; ok {
			if id, ok := raw.(string); ok && id != "" {
				return id, true
			}
			if wrapper, ok := raw.(map[string]interface{}); ok {
				if id, ok := wrapper["$oid"].(string); ok && id != "" {
					return id, true
				}
			}
		}
	}
	return "", false
}
