package tracking

import "shiptrack/internal/carrier"

// Canonical detected-status labels, from most to least advanced.
const (
	StatusDelivered      = "Delivered"
	StatusOutForDelivery = "Out for Delivery"
	StatusInTransit      = "In Transit"
	StatusPreTransit     = "Pre-Transit"
	StatusPreShipment    = "Pre-Shipment"
	StatusProcessed      = "Processed"
)

type statusMatch struct {
	substr string
	label  string
}

// pageRules drives the deep check for one carrier: notFound substrings mark
// the page as invalid (no such tracking number); statuses are tried in
// priority order against the normalized page text, first match wins. All
// substrings are lowercase because the page text is lowercased first.
type pageRules struct {
	notFound []string
	statuses []statusMatch
}

var carrierRules = map[string]pageRules{
	carrier.USPS: {
		notFound: []string{
			"status not available",
			"could not locate the tracking information",
		},
		statuses: []statusMatch{
			{"delivered", StatusDelivered},
			{"out for delivery", StatusOutForDelivery},
			{"in transit", StatusInTransit},
			{"arriving", StatusInTransit},
			{"pre-shipment", StatusPreShipment},
			{"shipping label created", StatusPreShipment},
			{"accepted", StatusProcessed},
		},
	},
	carrier.UPS: {
		notFound: []string{
			"could not locate the shipment details",
			"tracking number not found",
		},
		statuses: []statusMatch{
			{"delivered", StatusDelivered},
			{"out for delivery", StatusOutForDelivery},
			{"on the way", StatusInTransit},
			{"in transit", StatusInTransit},
			{"label created", StatusPreTransit},
			{"order processed", StatusProcessed},
		},
	},
	carrier.FedEx: {
		notFound: []string{
			"no record of this tracking number",
			"tracking number cannot be found",
		},
		statuses: []statusMatch{
			{"delivered", StatusDelivered},
			{"out for delivery", StatusOutForDelivery},
			{"on the way", StatusInTransit},
			{"in transit", StatusInTransit},
			{"label created", StatusPreTransit},
			{"shipment information sent to fedex", StatusPreTransit},
		},
	},
	carrier.Correios: {
		notFound: []string{
			"objeto não encontrado",
			"não foi possível obter informações",
		},
		statuses: []statusMatch{
			{"objeto entregue", StatusDelivered},
			{"saiu para entrega", StatusOutForDelivery},
			{"em trânsito", StatusInTransit},
			{"objeto em transferência", StatusInTransit},
			{"objeto postado", StatusProcessed},
		},
	},
	carrier.DHL: {
		notFound: []string{
			"no results found",
			"tracking attempt was not successful",
		},
		statuses: []statusMatch{
			{"delivered", StatusDelivered},
			{"with delivery courier", StatusOutForDelivery},
			{"in transit", StatusInTransit},
			{"shipment information received", StatusPreTransit},
		},
	},
}

// genericRules applies to unrecognized carriers: a bare not-found check, no
// status detection.
var genericRules = pageRules{
	notFound: []string{"not found", "no result"},
}

func rulesFor(carrierName string) pageRules {
	if rules, ok := carrierRules[carrierName]; ok {
		return rules
	}
	return genericRules
}
