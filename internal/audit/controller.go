package audit

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiptrack/internal/status"
)

type Controller struct {
	engine *Engine
	logger *zap.Logger
}

func NewController(engine *Engine, logger *zap.Logger) *Controller {
	return &Controller{
		engine: engine,
		logger: logger,
	}
}

// AuditShipments answers /api/audit-shipments: a buffered whole-shop audit,
// returned as a JSON summary with a row sample, or as a full CSV attachment
// when download is set.
func (c *Controller) AuditShipments(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	limit := intParam(r, "limit")
	lang := status.NormalizeLang(r.URL.Query().Get("lang"))
	deep := boolParam(r, "deep")

	logger.Info("audit requested",
		zap.Int("limit", limit), zap.String("lang", lang), zap.Bool("deep", deep))

	rows, summary := c.engine.Run(r.Context(), limit, lang, deep)

	if boolParam(r, "download") {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="shipment-audit.csv"`)
		if err := WriteCSV(w, rows, lang); err != nil {
			logger.Warn("csv write failed", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(NewJSONReport(rows, summary)); err != nil {
		logger.Error("failed to encode audit report", zap.Error(err))
	}
}

// AuditShipmentsStream answers /api/audit-shipments-stream: a chunked CSV
// that flushes after every order, so memory stays bounded and the download
// starts before the scan finishes. A mid-stream failure leaves an inline
// error marker row rather than a hanging response.
func (c *Controller) AuditShipmentsStream(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	limit := intParam(r, "limit")
	lang := status.NormalizeLang(r.URL.Query().Get("lang"))
	deep := boolParam(r, "deep")

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="shipment-audit.csv"`)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	stream := NewCSVStream(w, flusher, lang)
	if err := stream.WriteHeader(); err != nil {
		logger.Warn("stream aborted before header", zap.Error(err))
		return
	}

	if _, err := c.engine.RunStream(r.Context(), limit, lang, deep, stream.WriteRows); err != nil {
		logger.Warn("stream aborted", zap.Error(err))
		stream.WriteErrorMarker(err)
	}
}

func intParam(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || v == "true"
}
