package status

import "strings"

// Supported output languages. Anything other than "pt" renders English.
const (
	LangEN = "en"
	LangPT = "pt"
)

var friendlyEN = map[string]string{
	"unfulfilled":         "Preparing for shipment",
	"fulfilled":           "Shipped",
	"fully fulfilled":     "Delivered",
	"partially fulfilled": "Partially shipped",
	"processing":          "Processing",
	"paid":                "Payment confirmed",
	"pending":             "Pending confirmation",
}

var friendlyPT = map[string]string{
	"unfulfilled":         "Preparando para envio",
	"fulfilled":           "Enviado",
	"fully fulfilled":     "Entregue",
	"partially fulfilled": "Parcialmente enviado",
	"processing":          "Processando",
	"paid":                "Pagamento confirmado",
	"pending":             "Aguardando confirmação",
}

// NormalizeLang maps a query parameter to a supported language selector.
func NormalizeLang(lang string) string {
	if strings.EqualFold(strings.TrimSpace(lang), LangPT) {
		return LangPT
	}
	return LangEN
}

// Friendly translates a raw fulfillment status into the fixed friendly
// vocabulary. Missing statuses read as not-yet-shipped; unknown raw values
// pass through unchanged so new upstream statuses stay visible.
func Friendly(raw, lang string) string {
	table := friendlyEN
	if NormalizeLang(lang) == LangPT {
		table = friendlyPT
	}

	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return table["unfulfilled"]
	}
	if friendly, ok := table[key]; ok {
		return friendly
	}
	return raw
}

// IsDeliveredLike reports whether the upstream status claims the shipment
// reached the customer.
func IsDeliveredLike(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.Contains(s, "delivered") || s == "fully fulfilled"
}
