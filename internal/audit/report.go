package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"shiptrack/internal/status"
)

// JSON responses sample the row set; the full dataset is CSV-only.
const jsonSampleSize = 20

var csvHeadersEN = []string{
	"order_id", "order_number", "created_at", "email",
	"financial_status", "fulfillment_status", "friendly_status",
	"tracking_number", "tracking_company", "tracking_url",
	"carrier_detected", "carrier_mismatch",
	"url_reachable", "url_status",
	"page_valid", "page_detected_status", "status_conflict",
	"issues",
}

var csvHeadersPT = []string{
	"pedido_id", "pedido_numero", "criado_em", "email",
	"status_financeiro", "status_envio", "status_amigavel",
	"codigo_rastreio", "transportadora", "url_rastreio",
	"transportadora_detectada", "transportadora_divergente",
	"url_acessivel", "status_url",
	"pagina_valida", "status_detectado", "conflito_status",
	"problemas",
}

// JSONReport is the interactive (non-download) audit response.
type JSONReport struct {
	Summary Summary `json:"summary"`
	Sample  []Row   `json:"sample"`
	Note    string  `json:"note"`
}

func NewJSONReport(rows []Row, summary Summary) JSONReport {
	sample := rows
	if len(sample) > jsonSampleSize {
		sample = sample[:jsonSampleSize]
	}
	return JSONReport{
		Summary: summary,
		Sample:  sample,
		Note: fmt.Sprintf("sample limited to first %d of %d rows; pass download=1 for the full CSV",
			jsonSampleSize, len(rows)),
	}
}

// WriteCSV renders the full row set in one pass. encoding/csv quotes fields
// that need it and doubles embedded quotes, which is exactly the escape
// contract the report promises.
func WriteCSV(w io.Writer, rows []Row, lang string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders(lang)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(csvRecord(row, lang)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVStream writes rows incrementally, flushing down to the client after
// every batch so the response progresses while the audit is still running.
type CSVStream struct {
	cw      *csv.Writer
	flusher http.Flusher
	lang    string
}

// NewCSVStream wraps a response writer; flusher may be nil when the transport
// cannot flush, in which case batches are only buffered.
func NewCSVStream(w io.Writer, flusher http.Flusher, lang string) *CSVStream {
	return &CSVStream{
		cw:      csv.NewWriter(w),
		flusher: flusher,
		lang:    status.NormalizeLang(lang),
	}
}

func (s *CSVStream) WriteHeader() error {
	if err := s.cw.Write(csvHeaders(s.lang)); err != nil {
		return err
	}
	return s.flush()
}

func (s *CSVStream) WriteRows(rows []Row) error {
	for _, row := range rows {
		if err := s.cw.Write(csvRecord(row, s.lang)); err != nil {
			return err
		}
	}
	return s.flush()
}

// WriteErrorMarker leaves an inline marker instead of silently truncating a
// failed stream. Best effort; the connection may already be gone.
func (s *CSVStream) WriteErrorMarker(cause error) {
	record := make([]string, len(csvHeaders(s.lang)))
	record[0] = "#STREAM_ERROR: " + cause.Error()
	s.cw.Write(record)
	s.flush()
}

func (s *CSVStream) flush() error {
	s.cw.Flush()
	if err := s.cw.Error(); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func csvHeaders(lang string) []string {
	if status.NormalizeLang(lang) == status.LangPT {
		return csvHeadersPT
	}
	return csvHeadersEN
}

func csvRecord(row Row, lang string) []string {
	pageValid := ""
	if row.PageValid != nil {
		pageValid = csvBool(*row.PageValid, lang)
	}
	detected := ""
	if row.PageDetectedStatus != nil {
		detected = *row.PageDetectedStatus
	}
	return []string{
		strconv.FormatInt(row.OrderID, 10),
		row.OrderNumber,
		row.CreatedAt,
		row.Email,
		row.FinancialStatus,
		row.FulfillmentStatus,
		row.FriendlyStatus,
		row.TrackingNumber,
		row.TrackingCompany,
		row.TrackingURL,
		row.CarrierDetected,
		csvBool(row.CarrierMismatch, lang),
		csvBool(row.URLReachable, lang),
		strconv.Itoa(row.URLStatus),
		pageValid,
		detected,
		csvBool(row.StatusConflict, lang),
		row.Issues,
	}
}

// Booleans localize in CSV only; JSON keeps real booleans.
func csvBool(b bool, lang string) string {
	if status.NormalizeLang(lang) == status.LangPT {
		if b {
			return "Sim"
		}
		return "Não"
	}
	return strconv.FormatBool(b)
}
