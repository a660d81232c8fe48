package cases

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/repository"
)

// ExportContentType reports the MIME type for an export format before any
// body bytes are written.
func (ctl *Controller) ExportContentType(format string) (string, error) {
	exporter, err := domain.NewExporter(format, ctl.schema.Current())
	if err != nil {
		return "", err
	}
	return exporter.ContentType(), nil
}

// Download streams the targeted cases to w in the requested format (csv, tsv
// or json): optional header, one formatted record per case with the
// separator between records only, optional footer. Cases are pulled one at a
// time from the storage iterator; the full result set is never materialized.
func (ctl *Controller) Download(ctx context.Context, format string, target Target, w io.Writer) error {
	exporter, err := domain.NewExporter(format, ctl.schema.Current())
	if err != nil {
		return err
	}
	filter, err := target.filter()
	if err != nil {
		return err
	}

	var it repository.CaseIterator
	if filter != nil {
		it, err = ctl.store.MatchingCases(ctx, filter)
	} else {
		it, err = ctl.store.CasesByID(ctx, target.CaseIDs)
	}
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := it.Close(ctx); closeErr != nil {
			ctl.logger.Warn("closing export iterator", zap.Error(closeErr))
		}
	}()

	if header, ok := exporter.Header(); ok {
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}
	}

	first := true
	for it.Next(ctx) {
		row, err := exporter.Row(it.Case())
		if err != nil {
			return err
		}
		if !first {
			if _, err := io.WriteString(w, exporter.Separator()); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, row); err != nil {
			return err
		}
		first = false
	}
	if err := it.Err(); err != nil {
		return err
	}

	if footer, ok := exporter.Footer(); ok {
		if _, err := io.WriteString(w, footer); err != nil {
			return err
		}
	}
	return nil
}
