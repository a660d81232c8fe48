package ingest

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/pkg/geocode"
	"github.com/linelist/backend/pkg/parse"
)

// Row is one raw record from an upstream source feed, keyed by the feed's
// column names.
type Row map[string]string

// Normalizer converts raw feed rows into untyped case documents. Optional
// fields degrade gracefully: a value that fails to parse is logged and
// dropped, never failing the whole row. Only the mandatory confirmation date
// fails the row.
type Normalizer struct {
	geocoder geocode.Geocoder
	logger   *zap.Logger
}

func NewNormalizer(geocoder geocode.Geocoder, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{geocoder: geocoder, logger: logger}
}

// Normalize builds a case document for the given source. The returned map
// uses the same shape the case controller accepts, with dates in the external
// MM/DD/YYYYZ form.
func (n *Normalizer) Normalize(ctx context.Context, sourceID string, row Row) (map[string]interface{}, error) {
	confirmed, err := parse.Date(row["dateConfirmed"])
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeValidation, "confirmation date is unparseable", err)
	}
	if confirmed == nil {
		return nil, domain.NewError(domain.ErrCodeValidation, "confirmation date is missing")
	}

	doc := map[string]interface{}{
		"confirmationDate": domain.FormatWireDate(*confirmed),
		"caseReference":    n.caseReference(sourceID, row),
	}

	if demographics := n.demographics(sourceID, row); len(demographics) > 0 {
		doc["demographics"] = demographics
	}
	if location := n.location(ctx, sourceID, row); len(location) > 0 {
		doc["location"] = location
	}
	if events := n.events(sourceID, row); len(events) > 0 {
		doc["events"] = events
	}
	return doc, nil
}

func (n *Normalizer) caseReference(sourceID string, row Row) map[string]interface{} {
	ref := map[string]interface{}{
		"sourceId": sourceID,
		"status":   string(domain.StatusUnverified),
	}
	if entryID := row["sourceEntryId"]; entryID != "" {
		ref["sourceEntryId"] = entryID
	}
	if url := row["sourceUrl"]; url != "" {
		ref["sourceUrl"] = url
	}
	return ref
}

func (n *Normalizer) demographics(sourceID string, row Row) map[string]interface{} {
	demographics := map[string]interface{}{}
	if raw := row["age"]; raw != "" {
		start, end, err := parse.AgeRange(raw)
		if err != nil {
			n.dropField(sourceID, "age", raw, err)
		} else {
			if start != nil {
				demographics["ageStart"] = *start
			}
			if end != nil {
				demographics["ageEnd"] = *end
			}
		}
	}
	if raw := row["sex"]; raw != "" {
		sex, err := parse.Sex(raw)
		if err != nil {
			n.dropField(sourceID, "sex", raw, err)
		} else if sex != "" {
			demographics["sex"] = sex
		}
	}
	return demographics
}

func (n *Normalizer) location(ctx context.Context, sourceID string, row Row) map[string]interface{} {
	query := row["location"]
	if query == "" {
		return nil
	}
	loc, err := geocode.Resolve(ctx, n.geocoder, strings.Split(query, ","))
	if err != nil {
		n.dropField(sourceID, "location", query, err)
		return nil
	}
	resolution := string(loc.Resolution)
	if raw := row["geoResolution"]; raw != "" {
		parsed, err := parse.GeoResolution(raw)
		if err != nil {
			n.dropField(sourceID, "geoResolution", raw, err)
		} else if parsed != "" {
			resolution = parsed
		}
	}
	out := map[string]interface{}{
		"country":       loc.Country,
		"geoResolution": resolution,
	}
	if loc.Admin1 != "" {
		out["admin1"] = loc.Admin1
	}
	if loc.Admin2 != "" {
		out["admin2"] = loc.Admin2
	}
	if loc.Locality != "" {
		out["locality"] = loc.Locality
	}
	if loc.Latitude != 0 || loc.Longitude != 0 {
		out["latitude"] = loc.Latitude
		out["longitude"] = loc.Longitude
	}
	return out
}

// events maps the optional per-event date columns onto the events list.
func (n *Normalizer) events(sourceID string, row Row) []map[string]interface{} {
	events := []map[string]interface{}{}
	for _, mapping := range []struct {
		column string
		name   string
	}{
		{"dateOnset", "onsetSymptoms"},
		{"dateHospitalized", "hospitalAdmission"},
		{"dateOutcome", "outcome"},
	} {
		raw := row[mapping.column]
		if raw == "" {
			continue
		}
		date, err := parse.Date(raw)
		if err != nil {
			n.dropField(sourceID, mapping.column, raw, err)
			continue
		}
		if date == nil {
			continue
		}
		events = append(events, map[string]interface{}{
			"name": mapping.name,
			"date": domain.FormatWireDate(*date),
		})
	}
	return events
}

// dropField records a graceful degradation: enough context to audit what was
// lost, without failing the row.
func (n *Normalizer) dropField(sourceID, field, raw string, err error) {
	n.logger.Warn("dropping unparseable field",
		zap.String("source_id", sourceID),
		zap.String("field", field),
		zap.String("value", raw),
		zap.Error(err))
}
