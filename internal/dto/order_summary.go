package dto

import "encoding/json"

// TrackingDTO is the tracking slice of an order summary response.
type TrackingDTO struct {
	Number          string `json:"number,omitempty"`
	Company         string `json:"company,omitempty"`
	URL             string `json:"url,omitempty"`
	CarrierDetected string `json:"carrier_detected,omitempty"`
	CarrierMismatch bool   `json:"carrier_mismatch"`
	URLReachable    bool   `json:"url_reachable"`
	URLStatus       int    `json:"url_status"`
}

// OrderSummary is the per-order response of the lookup endpoints. Raw carries
// the upstream order verbatim when debug is requested.
type OrderSummary struct {
	OrderID           int64           `json:"order_id"`
	OrderNumber       string          `json:"order_number,omitempty"`
	CreatedAt         string          `json:"created_at,omitempty"`
	Email             string          `json:"email,omitempty"`
	FinancialStatus   string          `json:"financial_status,omitempty"`
	FulfillmentStatus string          `json:"fulfillment_status,omitempty"`
	FriendlyStatus    string          `json:"friendly_status"`
	Tracking          *TrackingDTO    `json:"tracking,omitempty"`
	Raw               json.RawMessage `json:"raw,omitempty"`
}

// OrderListResponse wraps the listing variant.
type OrderListResponse struct {
	Count  int            `json:"count"`
	Orders []OrderSummary `json:"orders"`
}
