package tracking

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"shiptrack/internal/carrier"
	"shiptrack/internal/status"
)

// Per-call deadlines. Tracking portals are slow and flaky; a blown deadline
// degrades to a negative result, it never fails the enclosing audit.
const (
	shallowTimeout = 8 * time.Second
	deepTimeout    = 12 * time.Second
)

const maxPageBytes = 2 << 20

// URLCheck is the result of a shallow reachability probe. Status 0 means the
// request never got a response.
type URLCheck struct {
	OK     bool `json:"ok"`
	Status int  `json:"status"`
}

// DeepResult is the outcome of fetching and parsing a carrier tracking page.
type DeepResult struct {
	PageValid      bool
	DetectedStatus string
	HTTPStatus     int
}

// Assessment is everything the verifier and carrier validator derived for one
// fulfillment. Deep-only fields are nil when the deep check did not run.
type Assessment struct {
	CarrierDetected    string  `json:"carrier_detected"`
	CarrierClaimed     string  `json:"carrier_claimed"`
	CarrierMismatch    bool    `json:"carrier_mismatch"`
	URLReachable       bool    `json:"url_reachable"`
	URLStatus          int     `json:"url_status"`
	PageValid          *bool   `json:"page_valid,omitempty"`
	PageDetectedStatus *string `json:"page_detected_status,omitempty"`
	StatusConflict     bool    `json:"status_conflict"`
}

type Verifier struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{
		// No client-level timeout; each call carries its own context deadline.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// CheckURL probes a tracking URL with HEAD, retrying once with GET when the
// response is not ok — tracking portals commonly answer HEAD with 405 or 403.
// Any network failure or timeout yields {OK:false, Status:0}.
func (v *Verifier) CheckURL(ctx context.Context, url string) URLCheck {
	ctx, cancel := context.WithTimeout(ctx, shallowTimeout)
	defer cancel()

	statusCode, err := v.probe(ctx, http.MethodHead, url)
	if err == nil && isOKStatus(statusCode) {
		return URLCheck{OK: true, Status: statusCode}
	}
	if err != nil {
		return URLCheck{}
	}

	statusCode, err = v.probe(ctx, http.MethodGet, url)
	if err != nil {
		return URLCheck{}
	}
	return URLCheck{OK: isOKStatus(statusCode), Status: statusCode}
}

// DeepCheck fetches the carrier tracking page and interprets its text with
// the carrier's rule set. A failed fetch or empty page is an invalid page.
func (v *Verifier) DeepCheck(ctx context.Context, carrierName, url string) DeepResult {
	ctx, cancel := context.WithTimeout(ctx, deepTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DeepResult{}
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.Debug("deep tracking fetch failed", zap.String("url", url), zap.Error(err))
		return DeepResult{}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return DeepResult{HTTPStatus: resp.StatusCode}
	}

	text := normalizeText(string(body))
	if text == "" {
		return DeepResult{HTTPStatus: resp.StatusCode}
	}

	rules := rulesFor(carrierName)
	for _, marker := range rules.notFound {
		if strings.Contains(text, marker) {
			return DeepResult{HTTPStatus: resp.StatusCode}
		}
	}

	result := DeepResult{PageValid: true, HTTPStatus: resp.StatusCode}
	for _, m := range rules.statuses {
		if strings.Contains(text, m.substr) {
			result.DetectedStatus = m.label
			break
		}
	}
	return result
}

// Assess runs carrier detection and the shallow check for one fulfillment,
// plus the deep check when requested.
func (v *Verifier) Assess(ctx context.Context, trackingNumber, trackingCompany, trackingURL string, deep bool) Assessment {
	detected := carrier.DetectByNumber(trackingNumber)
	a := Assessment{
		CarrierDetected: detected,
		CarrierClaimed:  trackingCompany,
		CarrierMismatch: carrier.Mismatch(detected, trackingCompany),
	}

	if trackingURL == "" {
		return a
	}

	chk := v.CheckURL(ctx, trackingURL)
	a.URLReachable = chk.OK
	a.URLStatus = chk.Status

	if deep {
		ruleCarrier := detected
		if ruleCarrier == "" {
			ruleCarrier = carrier.Normalize(trackingCompany)
		}
		dr := v.DeepCheck(ctx, ruleCarrier, trackingURL)
		a.PageValid = &dr.PageValid
		if dr.DetectedStatus != "" {
			a.PageDetectedStatus = &dr.DetectedStatus
		}
	}

	return a
}

// StatusConflict flags a dispute between the store's claim and the carrier's
// page: the store says delivered, but the page is invalid or reports a
// pre-delivery status. Only meaningful after a deep check.
func StatusConflict(rawStatus string, a Assessment) bool {
	if !status.IsDeliveredLike(rawStatus) {
		return false
	}
	if a.PageValid == nil {
		return false
	}
	if !*a.PageValid {
		return true
	}
	if a.PageDetectedStatus == nil {
		return false
	}
	return !strings.Contains(strings.ToLower(*a.PageDetectedStatus), "delivered")
}

func (v *Verifier) probe(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	return resp.StatusCode, nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// normalizeText lowercases and collapses all whitespace runs to single
// spaces so rule substrings match rendered HTML reliably.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
