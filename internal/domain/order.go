package domain

import (
	"encoding/json"
	"strings"
)

// Order is the canonical shape extracted from whatever envelope the upstream
// commerce API answers with. It is built per request and never persisted.
type Order struct {
	ID                int64         `json:"id"`
	Number            json.Number   `json:"number"`
	CreatedAt         string        `json:"created_at"`
	Email             string        `json:"email"`
	ContactEmail      string        `json:"contact_email"`
	Customer          Contact       `json:"customer"`
	ShippingAddress   Contact       `json:"shipping_address"`
	BillingAddress    Contact       `json:"billing_address"`
	FinancialStatus   string        `json:"financial_status"`
	FulfillmentStatus string        `json:"fulfillment_status"`
	Fulfillments      []Fulfillment `json:"fulfillments"`

	// Raw keeps the undecoded upstream object for the debug echo.
	Raw json.RawMessage `json:"-"`
}

// Contact carries the only field we care about from the various customer and
// address sub-objects.
type Contact struct {
	Email string `json:"email"`
}

// Fulfillment is one shipping event attached to an order.
type Fulfillment struct {
	Status          string `json:"status"`
	TrackingNumber  string `json:"tracking_number"`
	TrackingCompany string `json:"tracking_company"`
	TrackingURL     string `json:"tracking_url"`
}

// BestEmail returns the first non-empty email candidate, in the same priority
// order the upstream documents them.
func (o *Order) BestEmail() string {
	for _, e := range o.emailCandidates() {
		if e != "" {
			return e
		}
	}
	return ""
}

// MatchesEmail reports whether any email candidate equals the given address,
// case-insensitive.
func (o *Order) MatchesEmail(email string) bool {
	if email == "" {
		return false
	}
	for _, e := range o.emailCandidates() {
		if e != "" && strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func (o *Order) emailCandidates() [5]string {
	return [5]string{
		o.Email,
		o.ContactEmail,
		o.Customer.Email,
		o.ShippingAddress.Email,
		o.BillingAddress.Email,
	}
}

// CurrentFulfillment returns the last fulfillment in arrival order, or nil
// when the order has none (an unfulfilled order).
func (o *Order) CurrentFulfillment() *Fulfillment {
	if len(o.Fulfillments) == 0 {
		return nil
	}
	return &o.Fulfillments[len(o.Fulfillments)-1]
}

// NumberString renders the order number as the upstream sent it, empty when
// absent.
func (o *Order) NumberString() string {
	return o.Number.String()
}
