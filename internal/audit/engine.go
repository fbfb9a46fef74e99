package audit

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"shiptrack/internal/domain"
	"shiptrack/internal/metrics"
	"shiptrack/internal/status"
	"shiptrack/internal/tracking"
)

// Issue vocabulary, deduplicated per order.
const (
	IssueMissingFulfillment    = "missing_fulfillment"
	IssueMissingTrackingNumber = "missing_tracking_number"
	IssueUnknownCarrierPattern = "unknown_carrier_pattern"
	IssueMissingTrackingURL    = "missing_tracking_url"
	IssueTrackingURLNotOK      = "tracking_url_not_ok"
	IssueTrackingPageInvalid   = "tracking_page_invalid"
	IssueStatusConflict        = "status_conflict"
)

// Row is one (order, fulfillment) pair, flattened and localized, ready for
// JSON or CSV emission. Rows live for one audit response and are discarded.
type Row struct {
	OrderID            int64   `json:"order_id"`
	OrderNumber        string  `json:"order_number"`
	CreatedAt          string  `json:"created_at"`
	Email              string  `json:"email"`
	FinancialStatus    string  `json:"financial_status"`
	FulfillmentStatus  string  `json:"fulfillment_status"`
	FriendlyStatus     string  `json:"friendly_status"`
	TrackingNumber     string  `json:"tracking_number"`
	TrackingCompany    string  `json:"tracking_company"`
	TrackingURL        string  `json:"tracking_url"`
	CarrierDetected    string  `json:"carrier_detected"`
	CarrierMismatch    bool    `json:"carrier_mismatch"`
	URLReachable       bool    `json:"url_reachable"`
	URLStatus          int     `json:"url_status"`
	PageValid          *bool   `json:"page_valid,omitempty"`
	PageDetectedStatus *string `json:"page_detected_status,omitempty"`
	StatusConflict     bool    `json:"status_conflict"`
	Issues             string  `json:"issues"`
}

// Summary aggregates one audit run. Rebuilt per request.
type Summary struct {
	OrdersScanned    int            `json:"orders_scanned"`
	OrdersWithIssues int            `json:"orders_with_issues"`
	IssueCounts      map[string]int `json:"issue_counts"`
}

// OrderSource is the slice of the locator the engine drives.
type OrderSource interface {
	ListAllPaged(ctx context.Context) []domain.Order
	EachOrderPaged(ctx context.Context, fn func(domain.Order) error) error
}

// Assessor is the slice of the tracking verifier the engine needs.
type Assessor interface {
	Assess(ctx context.Context, trackingNumber, trackingCompany, trackingURL string, deep bool) tracking.Assessment
}

// Engine audits orders strictly sequentially, per order and per fulfillment,
// bounding outbound concurrency to 1 against both the commerce API and
// carrier sites. Tracking failures degrade to negative results; the audit
// always completes and reports what it could verify.
type Engine struct {
	source   OrderSource
	assessor Assessor
	logger   *zap.Logger
}

func NewEngine(source OrderSource, assessor Assessor, logger *zap.Logger) *Engine {
	return &Engine{
		source:   source,
		assessor: assessor,
		logger:   logger,
	}
}

// AuditOrder emits one row per fulfillment (a single synthetic row when the
// order has none) plus the order's deduplicated issue list.
func (e *Engine) AuditOrder(ctx context.Context, ord domain.Order, lang string, deep bool) ([]Row, []string) {
	issues := &issueSet{}

	fulfillments := ord.Fulfillments
	if len(fulfillments) == 0 {
		issues.add(IssueMissingFulfillment)
		fulfillments = []domain.Fulfillment{{}}
	}

	rows := make([]Row, 0, len(fulfillments))
	for _, f := range fulfillments {
		rawStatus := ord.FulfillmentStatus
		if rawStatus == "" {
			rawStatus = f.Status
		}

		a := e.assessor.Assess(ctx, f.TrackingNumber, f.TrackingCompany, f.TrackingURL, deep)
		a.StatusConflict = tracking.StatusConflict(rawStatus, a)

		if f.TrackingNumber == "" {
			issues.add(IssueMissingTrackingNumber)
		} else if a.CarrierDetected == "" && strings.TrimSpace(f.TrackingCompany) == "" {
			issues.add(IssueUnknownCarrierPattern)
		}

		if f.TrackingURL == "" {
			issues.add(IssueMissingTrackingURL)
		} else {
			if !a.URLReachable {
				issues.add(IssueTrackingURLNotOK)
			}
			if a.PageValid != nil && !*a.PageValid {
				issues.add(IssueTrackingPageInvalid)
			}
			if a.StatusConflict {
				issues.add(IssueStatusConflict)
			}
		}

		rows = append(rows, Row{
			OrderID:            ord.ID,
			OrderNumber:        ord.NumberString(),
			CreatedAt:          ord.CreatedAt,
			Email:              ord.BestEmail(),
			FinancialStatus:    ord.FinancialStatus,
			FulfillmentStatus:  ord.FulfillmentStatus,
			FriendlyStatus:     status.Friendly(ord.FulfillmentStatus, lang),
			TrackingNumber:     f.TrackingNumber,
			TrackingCompany:    f.TrackingCompany,
			TrackingURL:        f.TrackingURL,
			CarrierDetected:    a.CarrierDetected,
			CarrierMismatch:    a.CarrierMismatch,
			URLReachable:       a.URLReachable,
			URLStatus:          a.URLStatus,
			PageValid:          a.PageValid,
			PageDetectedStatus: a.PageDetectedStatus,
			StatusConflict:     a.StatusConflict,
		})
	}

	joined := strings.Join(issues.items, ";")
	for i := range rows {
		rows[i].Issues = joined
	}
	return rows, issues.items
}

// Run audits the whole shop (optionally limited) and returns the full row set
// plus the issue summary.
func (e *Engine) Run(ctx context.Context, limit int, lang string, deep bool) ([]Row, Summary) {
	summary := newSummary()

	orders := e.source.ListAllPaged(ctx)
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}

	rows := []Row{}
	for _, ord := range orders {
		// Cooperative cancellation point between orders.
		if ctx.Err() != nil {
			break
		}
		orderRows, issues := e.AuditOrder(ctx, ord, lang, deep)
		rows = append(rows, orderRows...)
		summary.record(issues)
	}

	e.logger.Info("audit run finished",
		zap.Int("ordersScanned", summary.OrdersScanned),
		zap.Int("ordersWithIssues", summary.OrdersWithIssues),
		zap.Bool("deep", deep))
	return rows, summary
}

var errLimitReached = errors.New("audit limit reached")

// RunStream audits order by order, fetching listing pages lazily and handing
// each order's rows to emit as soon as they exist, so memory stays bounded by
// one order's rows and the response starts before the scan completes. An emit
// failure or caller cancellation aborts the run.
func (e *Engine) RunStream(ctx context.Context, limit int, lang string, deep bool, emit func([]Row) error) (Summary, error) {
	summary := newSummary()

	count := 0
	err := e.source.EachOrderPaged(ctx, func(ord domain.Order) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limit > 0 && count >= limit {
			return errLimitReached
		}
		count++

		rows, issues := e.AuditOrder(ctx, ord, lang, deep)
		summary.record(issues)
		return emit(rows)
	})
	if errors.Is(err, errLimitReached) {
		err = nil
	}

	e.logger.Info("streamed audit finished",
		zap.Int("ordersScanned", summary.OrdersScanned),
		zap.Bool("deep", deep),
		zap.Error(err))
	return summary, err
}

func newSummary() Summary {
	return Summary{IssueCounts: map[string]int{}}
}

func (s *Summary) record(issues []string) {
	s.OrdersScanned++
	metrics.AuditOrdersScanned.Inc()
	if len(issues) > 0 {
		s.OrdersWithIssues++
	}
	for _, issue := range issues {
		s.IssueCounts[issue]++
		metrics.AuditIssues.WithLabelValues(issue).Inc()
	}
}

// issueSet keeps first-seen order while deduplicating.
type issueSet struct {
	items []string
}

func (s *issueSet) add(issue string) {
	for _, it := range s.items {
		if it == issue {
			return
		}
	}
	s.items = append(s.items, issue)
}
