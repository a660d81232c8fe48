package domain

import (
	"strings"
	"time"
)

// CurationStatus is the closed set of curation states a case reference moves
// through.
type CurationStatus string

const (
	StatusUnverified CurationStatus = "UNVERIFIED"
	StatusPending    CurationStatus = "PENDING"
	StatusVerified   CurationStatus = "VERIFIED"
	StatusConfirmed  CurationStatus = "CONFIRMED"
	StatusExcluded   CurationStatus = "EXCLUDED"
)

// ParseCurationStatus matches a raw status string against the closed enum.
func ParseCurationStatus(raw string) (CurationStatus, error) {
	switch CurationStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusUnverified:
		return StatusUnverified, nil
	case StatusPending:
		return StatusPending, nil
	case StatusVerified:
		return StatusVerified, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusExcluded:
		return StatusExcluded, nil
	}
	return "", NewErrorf(ErrCodeValidation, "invalid curation status %q", raw)
}

// CaseReference identifies the feed a case originated from and its curation
// state. It is a value object owned by its Case.
type CaseReference struct {
	SourceID          string         `json:"sourceId" bson:"sourceId"`
	SourceEntryID     string         `json:"sourceEntryId,omitempty" bson:"sourceEntryId,omitempty"`
	SourceURL         string         `json:"sourceUrl,omitempty" bson:"sourceUrl,omitempty"`
	AdditionalSources []string       `json:"additionalSources,omitempty" bson:"additionalSources,omitempty"`
	Status            CurationStatus `json:"status,omitempty" bson:"status,omitempty"`
}

// Validate checks the reference's internal invariants.
func (r *CaseReference) Validate() error {
	if r.SourceID == "" {
		return NewError(ErrCodeValidation, "Case Reference requires a source id")
	}
	if r.Status != "" {
		if _, err := ParseCurationStatus(string(r.Status)); err != nil {
			return err
		}
	}
	return nil
}

// CaseExclusion carries the reason a case was excluded from the line list.
// Present only while the curation status is EXCLUDED.
type CaseExclusion struct {
	Note string     `json:"note" bson:"note"`
	Date *time.Time `json:"date,omitempty" bson:"date,omitempty"`
}

// Demographics captures the normalized demographic attributes of a case.
// Ages are a range because many jurisdictions report brackets, not exact
// values.
type Demographics struct {
	AgeStart *float64 `json:"ageStart,omitempty" bson:"ageStart,omitempty"`
	AgeEnd   *float64 `json:"ageEnd,omitempty" bson:"ageEnd,omitempty"`
	Sex      string   `json:"sex,omitempty" bson:"sex,omitempty"`
}

// Location is the geocoded place a case was reported in.
type Location struct {
	Country    string   `json:"country,omitempty" bson:"country,omitempty"`
	Admin1     string   `json:"admin1,omitempty" bson:"admin1,omitempty"`
	Admin2     string   `json:"admin2,omitempty" bson:"admin2,omitempty"`
	Locality   string   `json:"locality,omitempty" bson:"locality,omitempty"`
	Resolution string   `json:"geoResolution,omitempty" bson:"geoResolution,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
}

// Event is a dated milestone in the case history (onset, hospitalization,
// outcome and similar).
type Event struct {
	Name string     `json:"name" bson:"name"`
	Date *time.Time `json:"date,omitempty" bson:"date,omitempty"`
}

// Case is the canonical line-list record. The typed core is fixed; declared
// custom fields live in the open Custom map and are validated against the
// schema snapshot the case is constructed with.
type Case struct {
	ID               string                 `json:"_id,omitempty" bson:"_id,omitempty"`
	ConfirmationDate *time.Time             `json:"confirmationDate,omitempty" bson:"confirmationDate,omitempty"`
	CaseReference    *CaseReference         `json:"caseReference,omitempty" bson:"caseReference,omitempty"`
	CaseExclusion    *CaseExclusion         `json:"caseExclusion,omitempty" bson:"caseExclusion,omitempty"`
	Demographics     *Demographics          `json:"demographics,omitempty" bson:"demographics,omitempty"`
	Location         *Location              `json:"location,omitempty" bson:"location,omitempty"`
	Events           []Event                `json:"events,omitempty" bson:"events,omitempty"`
	Custom           map[string]interface{} `json:"custom,omitempty" bson:"custom,omitempty"`
}

// CaseFromDoc constructs a case from an untyped document (decoded JSON or
// BSON). Date fields are reinterpreted from native values, {"$date": ...}
// wrappers or date strings; the identifier accepts a plain string or an
// {"$oid": ...} wrapper. Keys that match neither the typed core nor a
// declared schema field are rejected.
func CaseFromDoc(doc map[string]interface{}, schema *Schema) (*Case, error) {
	if schema == nil {
		schema = EmptySchema()
	}
	c := &Case{}
	for key, value := range doc {
		switch key {
		case "_id", "id":
			id, err := docID(value)
			if err != nil {
				return nil, err
			}
			c.ID = id
		case "confirmationDate":
			d, err := docDate(value)
			if err != nil {
				return nil, WrapError(ErrCodeValidation, "invalid confirmationDate", err)
			}
			c.ConfirmationDate = d
		case "caseReference":
			ref, err := caseReferenceFromDoc(value)
			if err != nil {
				return nil, err
			}
			c.CaseReference = ref
		case "caseExclusion":
			excl, err := caseExclusionFromDoc(value)
			if err != nil {
				return nil, err
			}
			c.CaseExclusion = excl
		case "demographics":
			dem, err := demographicsFromDoc(value)
			if err != nil {
				return nil, err
			}
			c.Demographics = dem
		case "location":
			loc, err := locationFromDoc(value)
			if err != nil {
				return nil, err
			}
			c.Location = loc
		case "events":
			events, err := eventsFromDoc(value)
			if err != nil {
				return nil, err
			}
			c.Events = events
		default:
			field, declared := schema.Field(key)
			if !declared {
				return nil, NewErrorf(ErrCodeValidation, "unknown field %q", key)
			}
			v := value
			if field.Type == FieldTypeDate && value != nil {
				d, err := docDate(value)
				if err != nil {
					return nil, WrapError(ErrCodeValidation, "invalid date for field "+key, err)
				}
				if d != nil {
					v = *d
				} else {
					v = nil
				}
			}
			if err := field.CheckValue(v); err != nil {
				return nil, err
			}
			if c.Custom == nil {
				c.Custom = map[string]interface{}{}
			}
			c.Custom[key] = v
		}
	}
	return c, nil
}

// Validate checks the case invariants fail-fast: the first violated invariant
// is reported, later ones are not accumulated.
func (c *Case) Validate(schema *Schema) error {
	if schema == nil {
		schema = EmptySchema()
	}
	if c.ConfirmationDate == nil {
		return NewError(ErrCodeValidation, "Confirmation Date is mandatory")
	}
	if c.CaseReference == nil {
		return NewError(ErrCodeValidation, "Case Reference is mandatory")
	}
	if err := c.CaseReference.Validate(); err != nil {
		return err
	}
	if c.CaseReference.Status == StatusExcluded {
		if c.CaseExclusion == nil || c.CaseExclusion.Note == "" {
			return NewError(ErrCodeValidation, "excluded cases require an exclusion note")
		}
	} else if c.CaseExclusion != nil {
		return NewError(ErrCodeValidation, "exclusion data is only allowed on excluded cases")
	}
	for _, field := range schema.Fields() {
		value, present := c.Custom[field.Key]
		if field.Required && (!present || value == nil) {
			return NewErrorf(ErrCodeValidation, "field %q is required", field.Key)
		}
		if present {
			if err := field.CheckValue(value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ToDoc renders the case as an untyped document. Round-trips through
// CaseFromDoc: dates stay native time values, the identifier a plain string.
func (c *Case) ToDoc() map[string]interface{} {
	doc := map[string]interface{}{}
	if c.ID != "" {
		doc["_id"] = c.ID
	}
	if c.ConfirmationDate != nil {
		doc["confirmationDate"] = *c.ConfirmationDate
	}
	if c.CaseReference != nil {
		ref := map[string]interface{}{"sourceId": c.CaseReference.SourceID}
		if c.CaseReference.SourceEntryID != "" {
			ref["sourceEntryId"] = c.CaseReference.SourceEntryID
		}
		if c.CaseReference.SourceURL != "" {
			ref["sourceUrl"] = c.CaseReference.SourceURL
		}
		if len(c.CaseReference.AdditionalSources) > 0 {
			sources := make([]interface{}, len(c.CaseReference.AdditionalSources))
			for i, s := range c.CaseReference.AdditionalSources {
				sources[i] = s
			}
			ref["additionalSources"] = sources
		}
		if c.CaseReference.Status != "" {
			ref["status"] = string(c.CaseReference.Status)
		}
		doc["caseReference"] = ref
	}
	if c.CaseExclusion != nil {
		excl := map[string]interface{}{"note": c.CaseExclusion.Note}
		if c.CaseExclusion.Date != nil {
			excl["date"] = *c.CaseExclusion.Date
		}
		doc["caseExclusion"] = excl
	}
	if c.Demographics != nil {
		dem := map[string]interface{}{}
		if c.Demographics.AgeStart != nil {
			dem["ageStart"] = *c.Demographics.AgeStart
		}
		if c.Demographics.AgeEnd != nil {
			dem["ageEnd"] = *c.Demographics.AgeEnd
		}
		if c.Demographics.Sex != "" {
			dem["sex"] = c.Demographics.Sex
		}
		doc["demographics"] = dem
	}
	if c.Location != nil {
		loc := map[string]interface{}{}
		if c.Location.Country != "" {
			loc["country"] = c.Location.Country
		}
		if c.Location.Admin1 != "" {
			loc["admin1"] = c.Location.Admin1
		}
		if c.Location.Admin2 != "" {
			loc["admin2"] = c.Location.Admin2
		}
		if c.Location.Locality != "" {
			loc["locality"] = c.Location.Locality
		}
		if c.Location.Resolution != "" {
			loc["geoResolution"] = c.Location.Resolution
		}
		if c.Location.Latitude != nil {
			loc["latitude"] = *c.Location.Latitude
		}
		if c.Location.Longitude != nil {
			loc["longitude"] = *c.Location.Longitude
		}
		doc["location"] = loc
	}
	if len(c.Events) > 0 {
		events := make([]interface{}, len(c.Events))
		for i, ev := range c.Events {
			e := map[string]interface{}{"name": ev.Name}
			if ev.Date != nil {
				e["date"] = *ev.Date
			}
			events[i] = e
		}
		doc["events"] = events
	}
	for key, value := range c.Custom {
		doc[key] = value
	}
	return doc
}

// ValueAtPath resolves a dotted property path against the case document
// representation. The second return reports whether the path resolved to a
// present value.
func (c *Case) ValueAtPath(path string) (interface{}, bool) {
	var current interface{} = c.ToDoc()
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// UpdatedDocument returns a new validated copy of the case with the update's
// sets and unsets applied; the receiver is left untouched. Used to validate a
// prospective update before committing it.
func (c *Case) UpdatedDocument(update *DocumentUpdate, schema *Schema) (*Case, error) {
	if schema == nil {
		schema = EmptySchema()
	}
	doc := c.ToDoc()
	for _, set := range update.Sets() {
		if !knownPath(set.Path, schema) {
			return nil, NewErrorf(ErrCodeValidation, "update addresses undeclared field %q", set.Path)
		}
		setAtPath(doc, set.Path, set.Value)
	}
	for _, path := range update.Unsets() {
		if !knownPath(path, schema) {
			return nil, NewErrorf(ErrCodeValidation, "update addresses undeclared field %q", path)
		}
		unsetAtPath(doc, path)
	}
	updated, err := CaseFromDoc(doc, schema)
	if err != nil {
		return nil, err
	}
	if err := updated.Validate(schema); err != nil {
		return nil, err
	}
	return updated, nil
}

// corePaths enumerates the addressable dotted paths of the typed core.
var corePaths = map[string]struct{}{
	"confirmationDate":                  {},
	"caseReference":                     {},
	"caseReference.sourceId":            {},
	"caseReference.sourceEntryId":       {},
	"caseReference.sourceUrl":           {},
	"caseReference.additionalSources":   {},
	"caseReference.status":              {},
	"caseExclusion":                     {},
	"caseExclusion.note":                {},
	"caseExclusion.date":                {},
	"demographics":                      {},
	"demographics.ageStart":             {},
	"demographics.ageEnd":               {},
	"demographics.sex":                  {},
	"location":                          {},
	"location.country":                  {},
	"location.admin1":                   {},
	"location.admin2":                   {},
	"location.locality":                 {},
	"location.geoResolution":            {},
	"location.latitude":                 {},
	"location.longitude":                {},
	"events":                            {},
}

func knownPath(path string, schema *Schema) bool {
	if _, ok := corePaths[path]; ok {
		return true
	}
	_, declared := schema.Field(path)
	return declared
}

func setAtPath(doc map[string]interface{}, path string, value interface{}) {
	segments := strings.Split(path, ".")
	node := doc
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			node[segment] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
}

func unsetAtPath(doc map[string]interface{}, path string) {
	segments := strings.Split(path, ".")
	node := doc
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment].(map[string]interface{})
		if !ok {
			return
		}
		node = child
	}
	delete(node, segments[len(segments)-1])
}

// Clone returns a deep copy of the case.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := &Case{ID: c.ID}
	if c.ConfirmationDate != nil {
		d := *c.ConfirmationDate
		out.ConfirmationDate = &d
	}
	if c.CaseReference != nil {
		ref := *c.CaseReference
		ref.AdditionalSources = append([]string(nil), c.CaseReference.AdditionalSources...)
		out.CaseReference = &ref
	}
	if c.CaseExclusion != nil {
		excl := *c.CaseExclusion
		if c.CaseExclusion.Date != nil {
			d := *c.CaseExclusion.Date
			excl.Date = &d
		}
		out.CaseExclusion = &excl
	}
	if c.Demographics != nil {
		dem := *c.Demographics
		if c.Demographics.AgeStart != nil {
			v := *c.Demographics.AgeStart
			dem.AgeStart = &v
		}
		if c.Demographics.AgeEnd != nil {
			v := *c.Demographics.AgeEnd
			dem.AgeEnd = &v
		}
		out.Demographics = &dem
	}
	if c.Location != nil {
		loc := *c.Location
		if c.Location.Latitude != nil {
			v := *c.Location.Latitude
			loc.Latitude = &v
		}
		if c.Location.Longitude != nil {
			v := *c.Location.Longitude
			loc.Longitude = &v
		}
		out.Location = &loc
	}
	if len(c.Events) > 0 {
		out.Events = make([]Event, len(c.Events))
		for i, ev := range c.Events {
			cloned := ev
			if ev.Date != nil {
				d := *ev.Date
				cloned.Date = &d
			}
			out.Events[i] = cloned
		}
	}
	if len(c.Custom) > 0 {
		out.Custom = make(map[string]interface{}, len(c.Custom))
		for key, value := range c.Custom {
			out.Custom[key] = value
		}
	}
	return out
}
