package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func exportTestCase(t *testing.T) *Case {
	t.Helper()
	doc := validDoc()
	doc["_id"] = "case-1"
	doc["location"] = map[string]interface{}{"country": "FR"}
	doc["events"] = []interface{}{
		map[string]interface{}{"name": "onsetSymptoms", "date": "2020-03-10"},
	}
	c, err := CaseFromDoc(doc, nil)
	require.NoError(t, err)
	return c
}

func TestNewExporterUnsupportedFormat(t *testing.T) {
	_, err := NewExporter("xml", nil)
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeUnsupportedType))
}

func TestCSVExport(t *testing.T) {
	exporter, err := NewExporter("csv", nil)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", exporter.ContentType())

	header, ok := exporter.Header()
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(header, "_id,caseReference.sourceId"))
	assert.True(t, strings.HasSuffix(header, "\n"))

	row, err := exporter.Row(exportTestCase(t))
	require.NoError(t, err)
	cells := strings.Split(row, ",")
	assert.Equal(t, "case-1", cells[0])
	assert.Contains(t, row, "03/14/2020Z")
	assert.Contains(t, row, "FR")

	_, hasFooter := exporter.Footer()
	assert.False(t, hasFooter)
}

func TestCSVExportSchemaColumns(t *testing.T) {
	schema, err := NewSchema(Field{Key: "variant", Type: FieldTypeString})
	require.NoError(t, err)

	exporter, err := NewExporter("csv", schema)
	require.NoError(t, err)
	header, _ := exporter.Header()
	assert.True(t, strings.HasSuffix(strings.TrimSuffix(header, "\n"), ",variant"))
}

func TestTSVExport(t *testing.T) {
	exporter, err := NewExporter("tsv", nil)
	require.NoError(t, err)
	assert.Equal(t, "text/tab-separated-values", exporter.ContentType())

	row, err := exporter.Row(exportTestCase(t))
	require.NoError(t, err)
	assert.Contains(t, row, "\t")
}

func TestJSONExport(t *testing.T) {
	exporter, err := NewExporter("json", nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", exporter.ContentType())

	header, ok := exporter.Header()
	require.True(t, ok)
	assert.Equal(t, "[", header)
	assert.Equal(t, ",", exporter.Separator())
	footer, ok := exporter.Footer()
	require.True(t, ok)
	assert.Equal(t, "]", footer)

	row, err := exporter.Row(exportTestCase(t))
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(row), &doc))
	assert.Equal(t, "03/14/2020Z", doc["confirmationDate"])
	assert.Equal(t, "case-1", doc["_id"])
}

func TestWireDocRendersDates(t *testing.T) {
	doc := WireDoc(exportTestCase(t))
	assert.Equal(t, "03/14/2020Z", doc["confirmationDate"])
	events := doc["events"].([]interface{})
	event := events[0].(map[string]interface{})
	assert.Equal(t, "03/10/2020Z", event["date"])
}

func TestExportRendersBSONDateValues(t *testing.T) {
	schema, err := NewSchema(Field{Key: "vaccinationDate", Type: FieldTypeDate})
	require.NoError(t, err)

	c := exportTestCase(t)
	c.Custom = map[string]interface{}{
		"vaccinationDate": primitive.NewDateTimeFromTime(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)),
	}

	exporter, err := NewExporter("csv", schema)
	require.NoError(t, err)
	row, err := exporter.Row(c)
	require.NoError(t, err)
	assert.Contains(t, row, "06/01/2021Z")

	doc := WireDoc(c)
	assert.Equal(t, "06/01/2021Z", doc["vaccinationDate"])
}
