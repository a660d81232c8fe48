package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Date layouts accepted when reinterpreting document values. The wire layout
// (MM/DD/YYYYZ) is what case payloads carry across the system boundary.
const (
	wireDateLayout = "01/02/2006Z"
	isoDateLayout  = "2006-01-02"
)

// FormatWireDate renders a calendar date in the external MM/DD/YYYYZ form.
func FormatWireDate(t time.Time) string {
	return t.Format(wireDateLayout)
}

// docDate reinterprets a document value as a calendar date. Accepts native
// time values, BSON datetimes, {"$date": ...} wrappers (string or epoch
// milliseconds) and date strings in ISO, RFC 3339 or wire form. A nil input
// stays nil.
func docDate(value interface{}) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		d := v.UTC().Truncate(24 * time.Hour)
		return &d, nil
	case primitive.DateTime:
		d := v.Time().UTC().Truncate(24 * time.Hour)
		return &d, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		d := v.UTC().Truncate(24 * time.Hour)
		return &d, nil
	case string:
		return parseDateString(v)
	case map[string]interface{}:
		wrapped, ok := v["$date"]
		if !ok {
			return nil, fmt.Errorf("date object missing $date key")
		}
		switch w := wrapped.(type) {
		case string:
			return parseDateString(w)
		case float64:
			d := time.UnixMilli(int64(w)).UTC().Truncate(24 * time.Hour)
			return &d, nil
		case int64:
			d := time.UnixMilli(w).UTC().Truncate(24 * time.Hour)
			return &d, nil
		default:
			return nil, fmt.Errorf("unsupported $date value %T", wrapped)
		}
	default:
		return nil, fmt.Errorf("unsupported date representation %T", value)
	}
}

func parseDateString(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{isoDateLayout, wireDateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d := t.UTC().Truncate(24 * time.Hour)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("unparseable date %q", s)
}

// docID reinterprets the identifier value: a plain string or an
// {"$oid": ...} wrapper.
func docID(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]interface{}:
		oid, ok := v["$oid"].(string)
		if !ok {
			return "", NewError(ErrCodeValidation, "id object missing $oid key")
		}
		return oid, nil
	default:
		return "", NewErrorf(ErrCodeValidation, "unsupported id representation %T", value)
	}
}

func docString(doc map[string]interface{}, key string) (string, error) {
	value, ok := doc[key]
	if !ok || value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", NewErrorf(ErrCodeValidation, "%s must be a string, got %T", key, value)
	}
	return s, nil
}

func docFloat(doc map[string]interface{}, key string) (*float64, error) {
	value, ok := doc[key]
	if !ok || value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case float64:
		return &v, nil
	case float32:
		f := float64(v)
		return &f, nil
	case int:
		f := float64(v)
		return &f, nil
	case int32:
		f := float64(v)
		return &f, nil
	case int64:
		f := float64(v)
		return &f, nil
	default:
		return nil, NewErrorf(ErrCodeValidation, "%s must be a number, got %T", key, value)
	}
}

func asDoc(value interface{}, name string) (map[string]interface{}, error) {
	doc, ok := value.(map[string]interface{})
	if !ok {
		return nil, NewErrorf(ErrCodeValidation, "%s must be an object, got %T", name, value)
	}
	return doc, nil
}

func caseReferenceFromDoc(value interface{}) (*CaseReference, error) {
	if value == nil {
		return nil, nil
	}
	doc, err := asDoc(value, "caseReference")
	if err != nil {
		return nil, err
	}
	ref := &CaseReference{}
	if ref.SourceID, err = docString(doc, "sourceId"); err != nil {
		return nil, err
	}
	if ref.SourceEntryID, err = docString(doc, "sourceEntryId"); err != nil {
		return nil, err
	}
	if ref.SourceURL, err = docString(doc, "sourceUrl"); err != nil {
		return nil, err
	}
	if raw, ok := doc["additionalSources"]; ok && raw != nil {
		list, ok := raw.([]interface{})
		if !ok {
			if typed, isTyped := raw.([]string); isTyped {
				ref.AdditionalSources = append(ref.AdditionalSources, typed...)
			} else {
				return nil, NewErrorf(ErrCodeValidation, "additionalSources must be a list, got %T", raw)
			}
		}
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, NewErrorf(ErrCodeValidation, "additionalSources entries must be strings, got %T", item)
			}
			ref.AdditionalSources = append(ref.AdditionalSources, s)
		}
	}
	if raw, err := docString(doc, "status"); err != nil {
		return nil, err
	} else if raw != "" {
		status, err := ParseCurationStatus(raw)
		if err != nil {
			return nil, err
		}
		ref.Status = status
	}
	return ref, nil
}

func caseExclusionFromDoc(value interface{}) (*CaseExclusion, error) {
	if value == nil {
		return nil, nil
	}
	doc, err := asDoc(value, "caseExclusion")
	if err != nil {
		return nil, err
	}
	excl := &CaseExclusion{}
	if excl.Note, err = docString(doc, "note"); err != nil {
		return nil, err
	}
	if raw, ok := doc["date"]; ok {
		d, err := docDate(raw)
		if err != nil {
			return nil, WrapError(ErrCodeValidation, "invalid caseExclusion.date", err)
		}
		excl.Date = d
	}
	return excl, nil
}

func demographicsFromDoc(value interface{}) (*Demographics, error) {
	if value == nil {
		return nil, nil
	}
	doc, err := asDoc(value, "demographics")
	if err != nil {
		return nil, err
	}
	dem := &Demographics{}
	if dem.AgeStart, err = docFloat(doc, "ageStart"); err != nil {
		return nil, err
	}
	if dem.AgeEnd, err = docFloat(doc, "ageEnd"); err != nil {
		return nil, err
	}
	if dem.Sex, err = docString(doc, "sex"); err != nil {
		return nil, err
	}
	return dem, nil
}

func locationFromDoc(value interface{}) (*Location, error) {
	if value == nil {
		return nil, nil
	}
	doc, err := asDoc(value, "location")
	if err != nil {
		return nil, err
	}
	loc := &Location{}
	if loc.Country, err = docString(doc, "country"); err != nil {
		return nil, err
	}
	if loc.Admin1, err = docString(doc, "admin1"); err != nil {
		return nil, err
	}
	if loc.Admin2, err = docString(doc, "admin2"); err != nil {
		return nil, err
	}
	if loc.Locality, err = docString(doc, "locality"); err != nil {
		return nil, err
	}
	if loc.Resolution, err = docString(doc, "geoResolution"); err != nil {
		return nil, err
	}
	if loc.Latitude, err = docFloat(doc, "latitude"); err != nil {
		return nil, err
	}
	if loc.Longitude, err = docFloat(doc, "longitude"); err != nil {
		return nil, err
	}
	return loc, nil
}

func eventsFromDoc(value interface{}) ([]Event, error) {
	if value == nil {
		return nil, nil
	}
	var items []interface{}
	switch v := value.(type) {
	case []interface{}:
		items = v
	case []map[string]interface{}:
		items = make([]interface{}, len(v))
		for i, m := range v {
			items[i] = m
		}
	default:
		return nil, NewErrorf(ErrCodeValidation, "events must be a list, got %T", value)
	}
	events := make([]Event, 0, len(items))
	for _, item := range items {
		doc, err := asDoc(item, "events entry")
		if err != nil {
			return nil, err
		}
		ev := Event{}
		if ev.Name, err = docString(doc, "name"); err != nil {
			return nil, err
		}
		if ev.Name == "" {
			return nil, NewError(ErrCodeValidation, "events entries require a name")
		}
		if raw, ok := doc["date"]; ok {
			d, err := docDate(raw)
			if err != nil {
				return nil, WrapError(ErrCodeValidation, "invalid event date", err)
			}
			ev.Date = d
		}
		events = append(events, ev)
	}
	return events, nil
}
