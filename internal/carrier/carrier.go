package carrier

import (
	"regexp"
	"strings"
)

const (
	UPS      = "UPS"
	USPS     = "USPS"
	FedEx    = "FedEx"
	Correios = "Correios"
	DHL      = "DHL"
)

// Tracking-number heuristics, tried in order, first match wins. The FedEx
// 20-digit form overlaps with the USPS 20-22 digit range; USPS must stay
// ahead of FedEx so 20-digit numbers keep resolving to USPS.
var numberPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{UPS, regexp.MustCompile(`^1Z[A-Z0-9]{16}$`)},
	{USPS, regexp.MustCompile(`^[0-9]{20,22}$`)},
	{FedEx, regexp.MustCompile(`^([0-9]{12}|[0-9]{15}|[0-9]{20})$`)},
	{Correios, regexp.MustCompile(`^[A-Z]{2}[0-9]{9}BR$`)},
}

// DetectByNumber guesses the carrier from the tracking number alone. Every
// input maps to exactly one of the known carriers or to "".
func DetectByNumber(number string) string {
	n := strings.ToUpper(strings.TrimSpace(number))
	if n == "" {
		return ""
	}
	for _, p := range numberPatterns {
		if p.re.MatchString(n) {
			return p.name
		}
	}
	return ""
}

// USPS before UPS: "usps" contains "ups" as a substring.
var knownCarriers = []string{USPS, UPS, FedEx, Correios, DHL}

// Normalize maps a merchant-entered carrier name onto the known set by
// case-insensitive substring match. Unrecognized names pass through verbatim;
// they are unnormalized claims, not errors.
func Normalize(claimed string) string {
	c := strings.TrimSpace(claimed)
	if c == "" {
		return ""
	}
	lower := strings.ToLower(c)
	for _, k := range knownCarriers {
		if strings.Contains(lower, strings.ToLower(k)) {
			return k
		}
	}
	return c
}

// Mismatch is true only when both a detection and a claim exist and disagree.
// Absence of either side is never a mismatch.
func Mismatch(detected, claimed string) bool {
	if detected == "" || strings.TrimSpace(claimed) == "" {
		return false
	}
	return Normalize(claimed) != detected
}
