package orders

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiptrack/internal/carrier"
	"shiptrack/internal/domain"
	"shiptrack/internal/dto"
	apperrors "shiptrack/internal/errors"
	"shiptrack/internal/status"
	"shiptrack/internal/tracking"
)

// URLChecker is the slice of the tracking verifier the controller needs for
// single-order summaries.
type URLChecker interface {
	CheckURL(ctx context.Context, url string) tracking.URLCheck
}

type Controller struct {
	locator *Locator
	checker URLChecker
	logger  *zap.Logger
}

func NewController(locator *Locator, checker URLChecker, logger *zap.Logger) *Controller {
	return &Controller{
		locator: locator,
		checker: checker,
		logger:  logger,
	}
}

// OrderByEmail answers /api/order-by-email: the most recent order matching
// the email, where "most recent" means first match in the upstream's native
// order (the upstream does not guarantee recency ordering).
func (c *Controller) OrderByEmail(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	email := r.URL.Query().Get("email")
	if email == "" {
		c.writeValidationError(w, traceID, "email is required", apperrors.ValidationDetail{
			Field:   "email",
			Message: "email query parameter is required",
		})
		return
	}

	lang := status.NormalizeLang(r.URL.Query().Get("lang"))
	debug := boolParam(r, "debug")

	matches := c.locator.ListByEmail(r.Context(), email)
	if len(matches) == 0 {
		logger.Info("no orders for email")
		c.writeError(w, traceID, http.StatusNotFound, "NOT_FOUND", "no order found for that email")
		return
	}

	summary := c.summarize(r.Context(), matches[0], lang, debug, true)
	c.writeJSON(w, http.StatusOK, summary)
}

// OrderStatus answers /api/order-status: a single order by id or number with
// an email-ownership check. 403 on mismatch unless bypass_email is set.
func (c *Controller) OrderStatus(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		c.writeValidationError(w, traceID, "order_id is required", apperrors.ValidationDetail{
			Field:   "order_id",
			Message: "order_id query parameter is required",
		})
		return
	}

	ord, err := c.locator.FindByAnyID(r.Context(), orderID)
	if err != nil {
		c.handleLookupError(w, traceID, err, logger)
		return
	}

	email := r.URL.Query().Get("email")
	if !boolParam(r, "bypass_email") && !ord.MatchesEmail(email) {
		logger.Warn("email ownership check failed", zap.Int64("orderId", ord.ID))
		c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", "email does not match this order")
		return
	}

	lang := status.NormalizeLang(r.URL.Query().Get("lang"))
	summary := c.summarize(r.Context(), ord, lang, boolParam(r, "debug"), true)
	c.writeJSON(w, http.StatusOK, summary)
}

// OrdersByEmail answers /api/orders-by-email: every match as a summary, in
// upstream order, without per-order URL probes.
func (c *Controller) OrdersByEmail(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	email := r.URL.Query().Get("email")
	if email == "" {
		c.writeValidationError(w, traceID, "email is required", apperrors.ValidationDetail{
			Field:   "email",
			Message: "email query parameter is required",
		})
		return
	}

	lang := status.NormalizeLang(r.URL.Query().Get("lang"))
	debug := boolParam(r, "debug")

	matches := c.locator.ListByEmail(r.Context(), email)
	resp := dto.OrderListResponse{
		Count:  len(matches),
		Orders: make([]dto.OrderSummary, 0, len(matches)),
	}
	for _, ord := range matches {
		resp.Orders = append(resp.Orders, c.summarize(r.Context(), ord, lang, debug, false))
	}
	c.writeJSON(w, http.StatusOK, resp)
}

// FindAndStatus answers /api/find-and-status, the earlier combined variant:
// id lookup when order_id is given, else first email match.
func (c *Controller) FindAndStatus(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID := r.URL.Query().Get("order_id")
	email := r.URL.Query().Get("email")
	if orderID == "" && email == "" {
		c.writeValidationError(w, traceID, "order_id or email is required", apperrors.ValidationDetail{
			Field:   "order_id",
			Message: "either order_id or email must be given",
		})
		return
	}

	var ord domain.Order
	if orderID != "" {
		found, err := c.locator.FindByAnyID(r.Context(), orderID)
		if err != nil {
			c.handleLookupError(w, traceID, err, logger)
			return
		}
		if email != "" && !boolParam(r, "bypass_email") && !found.MatchesEmail(email) {
			c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", "email does not match this order")
			return
		}
		ord = found
	} else {
		matches := c.locator.ListByEmail(r.Context(), email)
		if len(matches) == 0 {
			c.writeError(w, traceID, http.StatusNotFound, "NOT_FOUND", "no order found for that email")
			return
		}
		ord = matches[0]
	}

	lang := status.NormalizeLang(r.URL.Query().Get("lang"))
	summary := c.summarize(r.Context(), ord, lang, boolParam(r, "debug"), true)
	c.writeJSON(w, http.StatusOK, summary)
}

// summarize projects an order into the response shape. checkURL controls the
// shallow reachability probe; listing endpoints skip it to stay cheap.
func (c *Controller) summarize(ctx context.Context, ord domain.Order, lang string, debug, checkURL bool) dto.OrderSummary {
	summary := dto.OrderSummary{
		OrderID:           ord.ID,
		OrderNumber:       ord.NumberString(),
		CreatedAt:         ord.CreatedAt,
		Email:             ord.BestEmail(),
		FinancialStatus:   ord.FinancialStatus,
		FulfillmentStatus: ord.FulfillmentStatus,
		FriendlyStatus:    status.Friendly(ord.FulfillmentStatus, lang),
	}

	if f := ord.CurrentFulfillment(); f != nil {
		detected := carrier.DetectByNumber(f.TrackingNumber)
		t := &dto.TrackingDTO{
			Number:          f.TrackingNumber,
			Company:         f.TrackingCompany,
			URL:             f.TrackingURL,
			CarrierDetected: detected,
			CarrierMismatch: carrier.Mismatch(detected, f.TrackingCompany),
		}
		if checkURL && f.TrackingURL != "" {
			chk := c.checker.CheckURL(ctx, f.TrackingURL)
			t.URLReachable = chk.OK
			t.URLStatus = chk.Status
		}
		summary.Tracking = t
	}

	if debug {
		summary.Raw = ord.Raw
	}
	return summary
}

func (c *Controller) handleLookupError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeError(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if ue, ok := apperrors.IsUpstreamError(err); ok {
		logger.Error("upstream unavailable", zap.Error(err))
		c.writeError(w, traceID, http.StatusInternalServerError, "UPSTREAM_UNAVAILABLE", ue.Error())
		return
	}
	logger.Error("unexpected error", zap.Error(err))
	c.writeError(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

type validationErrorResponse struct {
	TraceID string                       `json:"traceId"`
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *Controller) writeValidationError(w http.ResponseWriter, traceID, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		TraceID: traceID,
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *Controller) writeError(w http.ResponseWriter, traceID string, statusCode int, code, message string) {
	c.writeJSON(w, statusCode, dto.ErrorResponse{
		TraceID: traceID,
		Error:   code,
		Message: message,
	})
}

func (c *Controller) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}

func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || v == "true"
}
