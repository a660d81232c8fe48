package domain

import (
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exporter renders cases for streaming export. Header, separator and footer
// are optional; the controller emits the separator between records only.
type Exporter interface {
	ContentType() string
	Header() (string, bool)
	Row(c *Case) (string, error)
	Separator() string
	Footer() (string, bool)
}

// NewExporter selects an exporter by format name. Unknown formats fail with
// an unsupported-type error.
func NewExporter(format string, schema *Schema) (Exporter, error) {
	if schema == nil {
		schema = EmptySchema()
	}
	switch strings.ToLower(format) {
	case "csv":
		return &delimitedExporter{schema: schema, comma: ','}, nil
	case "tsv":
		return &delimitedExporter{schema: schema, comma: '\t'}, nil
	case "json":
		return &jsonExporter{schema: schema}, nil
	default:
		return nil, NewErrorf(ErrCodeUnsupportedType, "unsupported export format %q", format)
	}
}

// exportColumns is the flattened column order of the typed core. Nested
// value objects flatten to parent.child names; events opts out of flattening
// and is rendered as a single JSON cell.
var exportColumns = []string{
	"_id",
	"caseReference.sourceId",
	"caseReference.sourceEntryId",
	"caseReference.sourceUrl",
	"caseReference.additionalSources",
	"caseReference.status",
	"confirmationDate",
	"caseExclusion.note",
	"caseExclusion.date",
	"demographics.ageStart",
	"demographics.ageEnd",
	"demographics.sex",
	"location.country",
	"location.admin1",
	"location.admin2",
	"location.locality",
	"location.geoResolution",
	"location.latitude",
	"location.longitude",
	"events",
}

type delimitedExporter struct {
	schema *Schema
	comma  rune
}

func (e *delimitedExporter) ContentType() string {
	if e.comma == '\t' {
		return "text/tab-separated-values"
	}
	return "text/csv"
}

func (e *delimitedExporter) columns() []string {
	cols := make([]string, 0, len(exportColumns)+e.schema.Len())
	cols = append(cols, exportColumns...)
	for _, f := range e.schema.Fields() {
		cols = append(cols, f.Key)
	}
	return cols
}

// Header includes its own trailing newline; the inter-record separator is
// only emitted between rows.
func (e *delimitedExporter) Header() (string, bool) {
	return e.writeRecord(e.columns()) + "\n", true
}

func (e *delimitedExporter) Row(c *Case) (string, error) {
	cols := e.columns()
	cells := make([]string, len(cols))
	for i, col := range cols {
		cell, err := exportCell(c, col)
		if err != nil {
			return "", err
		}
		cells[i] = cell
	}
	return e.writeRecord(cells), nil
}

func (e *delimitedExporter) Separator() string {
	return "\n"
}

func (e *delimitedExporter) Footer() (string, bool) {
	return "", false
}

func (e *delimitedExporter) writeRecord(cells []string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Comma = e.comma
	_ = w.Write(cells)
	w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}

func exportCell(c *Case, column string) (string, error) {
	if column == "events" {
		if len(c.Events) == 0 {
			return "", nil
		}
		encoded, err := json.Marshal(wireEvents(c.Events))
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
	value, present := c.ValueAtPath(column)
	if !present || value == nil {
		return "", nil
	}
	return renderCell(value), nil
}

func renderCell(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return FormatWireDate(v)
	case primitive.DateTime:
		return FormatWireDate(v.Time())
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = renderCell(item)
		}
		return strings.Join(parts, ",")
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.Trim(string(encoded), `"`)
	}
}

type jsonExporter struct {
	schema *Schema
}

func (e *jsonExporter) ContentType() string {
	return "application/json"
}

func (e *jsonExporter) Header() (string, bool) {
	return "[", true
}

func (e *jsonExporter) Row(c *Case) (string, error) {
	encoded, err := json.Marshal(WireDoc(c))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func (e *jsonExporter) Separator() string {
	return ","
}

func (e *jsonExporter) Footer() (string, bool) {
	return "]", true
}

// WireDoc renders the case document with dates in the external MM/DD/YYYYZ
// form, suitable for JSON payloads crossing the system boundary.
func WireDoc(c *Case) map[string]interface{} {
	return wireValue(c.ToDoc()).(map[string]interface{})
}

func wireValue(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return FormatWireDate(v)
	case primitive.DateTime:
		return FormatWireDate(v.Time())
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = wireValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = wireValue(item)
		}
		return out
	default:
		return v
	}
}

func wireEvents(events []Event) []map[string]interface{} {
	out := make([]map[string]interface{}, len(events))
	for i, ev := range events {
		e := map[string]interface{}{"name": ev.Name}
		if ev.Date != nil {
			e["date"] = FormatWireDate(*ev.Date)
		}
		out[i] = e
	}
	return out
}
