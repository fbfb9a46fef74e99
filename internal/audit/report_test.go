package audit

import (
	"bytes"
	"encoding/csv"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRow() Row {
	valid := true
	detected := "In Transit"
	return Row{
		OrderID:            42,
		OrderNumber:        "1042",
		CreatedAt:          "2024-03-01T10:00:00Z",
		Email:              "a@example.com",
		FinancialStatus:    "paid",
		FulfillmentStatus:  "fulfilled",
		FriendlyStatus:     "Shipped",
		TrackingNumber:     "1Z999AA10123456784",
		TrackingCompany:    "UPS",
		TrackingURL:        "https://track.example.com/1Z",
		CarrierDetected:    "UPS",
		CarrierMismatch:    false,
		URLReachable:       true,
		URLStatus:          200,
		PageValid:          &valid,
		PageDetectedStatus: &detected,
		StatusConflict:     false,
		Issues:             "",
	}
}

func TestWriteCSV_EnglishHeadersAndValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Row{sampleRow()}, "en"))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, csvHeadersEN, records[0])
	row := records[1]
	assert.Equal(t, "42", row[0])
	assert.Equal(t, "1042", row[1])
	assert.Equal(t, "false", row[11], "carrier_mismatch")
	assert.Equal(t, "true", row[12], "url_reachable")
	assert.Equal(t, "200", row[13])
	assert.Equal(t, "true", row[14], "page_valid")
	assert.Equal(t, "In Transit", row[15])
}

func TestWriteCSV_PortugueseHeadersAndBooleans(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Row{sampleRow()}, "pt"))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, csvHeadersPT, records[0])
	row := records[1]
	assert.Equal(t, "Não", row[11])
	assert.Equal(t, "Sim", row[12])
	assert.Equal(t, "Sim", row[14])
}

func TestWriteCSV_NilDeepFieldsAreEmptyCells(t *testing.T) {
	row := sampleRow()
	row.PageValid = nil
	row.PageDetectedStatus = nil

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Row{row}, "en"))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "", records[1][14])
	assert.Equal(t, "", records[1][15])
}

// Fields with commas and quotes must survive a write/parse round trip intact:
// `ACME, "Fast"` is emitted as `"ACME, ""Fast"""`.
func TestWriteCSV_QuoteEscapingRoundTrip(t *testing.T) {
	row := sampleRow()
	row.TrackingCompany = `ACME, "Fast"`
	row.Email = "comma, in@example.com"

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Row{row}, "en"))

	assert.Contains(t, buf.String(), `"ACME, ""Fast"""`)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, `ACME, "Fast"`, records[1][8])
	assert.Equal(t, "comma, in@example.com", records[1][3])
}

func TestCSVHeaders_ColumnCountMatchesRecord(t *testing.T) {
	require.Equal(t, len(csvHeadersEN), len(csvHeadersPT))
	assert.Equal(t, len(csvHeadersEN), len(csvRecord(sampleRow(), "en")))
}

func TestNewJSONReport_SamplesFirstTwenty(t *testing.T) {
	rows := make([]Row, 35)
	for i := range rows {
		rows[i] = Row{OrderID: int64(i + 1)}
	}
	summary := Summary{OrdersScanned: 35, IssueCounts: map[string]int{}}

	report := NewJSONReport(rows, summary)

	assert.Len(t, report.Sample, jsonSampleSize)
	assert.Equal(t, int64(1), report.Sample[0].OrderID)
	assert.Equal(t, 35, report.Summary.OrdersScanned)
	assert.Contains(t, report.Note, "download=1")
}

func TestNewJSONReport_SmallRowSetKeptWhole(t *testing.T) {
	report := NewJSONReport([]Row{sampleRow()}, Summary{OrdersScanned: 1})
	assert.Len(t, report.Sample, 1)
}

func TestCSVStream_WritesIncrementallyAndFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	stream := NewCSVStream(rec, rec, "en")

	require.NoError(t, stream.WriteHeader())
	require.NoError(t, stream.WriteRows([]Row{sampleRow()}))
	assert.True(t, rec.Flushed)

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeadersEN, records[0])
}

func TestCSVStream_ErrorMarkerLandsInFirstColumn(t *testing.T) {
	rec := httptest.NewRecorder()
	stream := NewCSVStream(rec, rec, "en")

	require.NoError(t, stream.WriteHeader())
	stream.WriteErrorMarker(errors.New("upstream died mid-scan"))

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "#STREAM_ERROR: upstream died mid-scan", records[1][0])
	for _, cell := range records[1][1:] {
		assert.Equal(t, "", cell)
	}
}

func TestCSVStream_NilFlusherTolerated(t *testing.T) {
	var buf bytes.Buffer
	stream := NewCSVStream(&buf, nil, "pt")

	require.NoError(t, stream.WriteHeader())
	require.NoError(t, stream.WriteRows([]Row{sampleRow()}))
	assert.Contains(t, buf.String(), "pedido_id")
	assert.Contains(t, buf.String(), "Sim")
}

func TestCSVBool(t *testing.T) {
	assert.Equal(t, "true", csvBool(true, "en"))
	assert.Equal(t, "false", csvBool(false, "en"))
	assert.Equal(t, "Sim", csvBool(true, "pt"))
	assert.Equal(t, "Não", csvBool(false, "pt"))
}
