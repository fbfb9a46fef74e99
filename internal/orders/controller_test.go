package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shiptrack/internal/domain"
	"shiptrack/internal/dto"
	"shiptrack/internal/tracking"
)

type stubChecker struct {
	check tracking.URLCheck
	calls int
}

func (s *stubChecker) CheckURL(_ context.Context, _ string) tracking.URLCheck {
	s.calls++
	return s.check
}

func newTestController(api API, checker URLChecker) *Controller {
	if checker == nil {
		checker = &stubChecker{}
	}
	locator := NewLocator(api, zap.NewNop())
	return NewController(locator, checker, zap.NewNop())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func shippedOrder() domain.Order {
	return domain.Order{
		ID:                42,
		Number:            json.Number("1042"),
		Email:             "a@example.com",
		FulfillmentStatus: "fulfilled",
		Fulfillments: []domain.Fulfillment{{
			Status:          "success",
			TrackingNumber:  "1Z999AA10123456784",
			TrackingCompany: "UPS",
			TrackingURL:     "https://track.example.com/1Z",
		}},
		Raw: json.RawMessage(`{"id": 42, "secret_field": true}`),
	}
}

func TestOrderByEmail_MissingEmailIs400(t *testing.T) {
	c := newTestController(&fakeAPI{}, nil)

	rec := httptest.NewRecorder()
	c.OrderByEmail(rec, httptest.NewRequest(http.MethodGet, "/api/order-by-email", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp validationErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error)
	assert.NotEmpty(t, resp.TraceID)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "email", resp.Details[0].Field)
}

func TestOrderByEmail_NoMatchIs404(t *testing.T) {
	c := newTestController(&fakeAPI{}, nil)

	rec := httptest.NewRecorder()
	c.OrderByEmail(rec, httptest.NewRequest(http.MethodGet, "/api/order-by-email?email=x@example.com", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp dto.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "NOT_FOUND", resp.Error)
}

func TestOrderByEmail_FirstMatchSummarizedWithURLProbe(t *testing.T) {
	api := &fakeAPI{byFilter: map[string][]domain.Order{
		"search": {shippedOrder(), {ID: 43}},
	}}
	checker := &stubChecker{check: tracking.URLCheck{OK: true, Status: 200}}
	c := newTestController(api, checker)

	rec := httptest.NewRecorder()
	c.OrderByEmail(rec, httptest.NewRequest(http.MethodGet, "/api/order-by-email?email=a@example.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got dto.OrderSummary
	decodeBody(t, rec, &got)
	assert.Equal(t, int64(42), got.OrderID)
	assert.Equal(t, "1042", got.OrderNumber)
	assert.Equal(t, "Shipped", got.FriendlyStatus)
	require.NotNil(t, got.Tracking)
	assert.Equal(t, "UPS", got.Tracking.CarrierDetected)
	assert.False(t, got.Tracking.CarrierMismatch)
	assert.True(t, got.Tracking.URLReachable)
	assert.Equal(t, 200, got.Tracking.URLStatus)
	assert.Equal(t, 1, checker.calls)
	assert.Nil(t, got.Raw, "raw payload only present with debug=1")
}

func TestOrderByEmail_PortugueseStatus(t *testing.T) {
	api := &fakeAPI{byFilter: map[string][]domain.Order{
		"search": {shippedOrder()},
	}}
	c := newTestController(api, nil)

	rec := httptest.NewRecorder()
	c.OrderByEmail(rec, httptest.NewRequest(http.MethodGet, "/api/order-by-email?email=a@example.com&lang=pt", nil))

	var got dto.OrderSummary
	decodeBody(t, rec, &got)
	assert.Equal(t, "Enviado", got.FriendlyStatus)
}

func TestOrderStatus_MissingOrderIDIs400(t *testing.T) {
	c := newTestController(&fakeAPI{}, nil)

	rec := httptest.NewRecorder()
	c.OrderStatus(rec, httptest.NewRequest(http.MethodGet, "/api/order-status", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderStatus_UnknownOrderIs404(t *testing.T) {
	c := newTestController(&fakeAPI{orderErr: errors.New("boom")}, nil)

	rec := httptest.NewRecorder()
	c.OrderStatus(rec, httptest.NewRequest(http.MethodGet, "/api/order-status?order_id=9&email=a@example.com", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderStatus_EmailMismatchIs403(t *testing.T) {
	c := newTestController(&fakeAPI{order: shippedOrder()}, nil)

	rec := httptest.NewRecorder()
	c.OrderStatus(rec, httptest.NewRequest(http.MethodGet, "/api/order-status?order_id=42&email=wrong@example.com", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp dto.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "FORBIDDEN", resp.Error)
}

func TestOrderStatus_BypassEmailSkipsOwnershipCheck(t *testing.T) {
	c := newTestController(&fakeAPI{order: shippedOrder()}, nil)

	rec := httptest.NewRecorder()
	c.OrderStatus(rec, httptest.NewRequest(http.MethodGet,
		"/api/order-status?order_id=42&email=wrong@example.com&bypass_email=1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderStatus_MatchingEmailSucceeds(t *testing.T) {
	c := newTestController(&fakeAPI{order: shippedOrder()}, nil)

	rec := httptest.NewRecorder()
	c.OrderStatus(rec, httptest.NewRequest(http.MethodGet,
		"/api/order-status?order_id=42&email=A@Example.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.OrderSummary
	decodeBody(t, rec, &got)
	assert.Equal(t, int64(42), got.OrderID)
}

func TestOrderStatus_DebugIncludesRawPayload(t *testing.T) {
	c := newTestController(&fakeAPI{order: shippedOrder()}, nil)

	rec := httptest.NewRecorder()
	c.OrderStatus(rec, httptest.NewRequest(http.MethodGet,
		"/api/order-status?order_id=42&bypass_email=true&debug=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.OrderSummary
	decodeBody(t, rec, &got)
	assert.Contains(t, string(got.Raw), "secret_field")
}

func TestOrdersByEmail_ListsAllMatchesWithoutURLProbes(t *testing.T) {
	api := &fakeAPI{byFilter: map[string][]domain.Order{
		"search": {shippedOrder(), {ID: 43, Number: json.Number("1043")}},
	}}
	checker := &stubChecker{check: tracking.URLCheck{OK: true, Status: 200}}
	c := newTestController(api, checker)

	rec := httptest.NewRecorder()
	c.OrdersByEmail(rec, httptest.NewRequest(http.MethodGet, "/api/orders-by-email?email=a@example.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.OrderListResponse
	decodeBody(t, rec, &got)
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Orders, 2)
	assert.Equal(t, 0, checker.calls, "listing endpoint must not probe tracking URLs")
	require.NotNil(t, got.Orders[0].Tracking)
	assert.False(t, got.Orders[0].Tracking.URLReachable)
}

func TestOrdersByEmail_EmptyListIs200(t *testing.T) {
	c := newTestController(&fakeAPI{}, nil)

	rec := httptest.NewRecorder()
	c.OrdersByEmail(rec, httptest.NewRequest(http.MethodGet, "/api/orders-by-email?email=x@example.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.OrderListResponse
	decodeBody(t, rec, &got)
	assert.Equal(t, 0, got.Count)
	assert.NotNil(t, got.Orders)
}

func TestFindAndStatus_RequiresSomeIdentifier(t *testing.T) {
	c := newTestController(&fakeAPI{}, nil)

	rec := httptest.NewRecorder()
	c.FindAndStatus(rec, httptest.NewRequest(http.MethodGet, "/api/find-and-status", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindAndStatus_PrefersOrderID(t *testing.T) {
	api := &fakeAPI{
		order:    shippedOrder(),
		byFilter: map[string][]domain.Order{"search": {{ID: 99}}},
	}
	c := newTestController(api, nil)

	rec := httptest.NewRecorder()
	c.FindAndStatus(rec, httptest.NewRequest(http.MethodGet,
		"/api/find-and-status?order_id=42&email=a@example.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.OrderSummary
	decodeBody(t, rec, &got)
	assert.Equal(t, int64(42), got.OrderID)
}

func TestFindAndStatus_FallsBackToEmail(t *testing.T) {
	api := &fakeAPI{byFilter: map[string][]domain.Order{
		"email": {shippedOrder()},
	}}
	c := newTestController(api, nil)

	rec := httptest.NewRecorder()
	c.FindAndStatus(rec, httptest.NewRequest(http.MethodGet,
		"/api/find-and-status?email=a@example.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.OrderSummary
	decodeBody(t, rec, &got)
	assert.Equal(t, int64(42), got.OrderID)
}

func TestFindAndStatus_EmailMismatchIs403(t *testing.T) {
	c := newTestController(&fakeAPI{order: shippedOrder()}, nil)

	rec := httptest.NewRecorder()
	c.FindAndStatus(rec, httptest.NewRequest(http.MethodGet,
		"/api/find-and-status?order_id=42&email=wrong@example.com", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSummarize_NoFulfillmentMeansNoTrackingBlock(t *testing.T) {
	c := newTestController(&fakeAPI{}, nil)

	summary := c.summarize(context.Background(), domain.Order{ID: 1}, "en", false, true)

	assert.Nil(t, summary.Tracking)
	assert.Equal(t, "Preparing for shipment", summary.FriendlyStatus)
}
