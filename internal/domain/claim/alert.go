package claim

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type AlertType string

const (
	AlertPriceDiscrepancy AlertType = "price_discrepancy"
	AlertQuantityExceeded AlertType = "quantity_exceeded"
	AlertDelayedClaim     AlertType = "delayed_claim"
)

// AlertTypes lists alert types in evaluation order.
var AlertTypes = []AlertType{AlertPriceDiscrepancy, AlertQuantityExceeded, AlertDelayedClaim}

func (t AlertType) Valid() bool {
	for _, v := range AlertTypes {
		if t == v {
			return true
		}
	}
	return false
}

// AlertDetails is the typed payload of an alert. Implemented by
// PriceDiscrepancy, QuantityExceeded and DelayedClaim.
type AlertDetails interface {
	alertType() AlertType
}

// Alert is a derived warning attached to a claim.
type Alert struct {
	Type    AlertType    `json:"type"`
	Message string       `json:"message"`
	Details AlertDetails `json:"details"`
}

// PriceMismatch sources.
const (
	SourceLineTotal = "line_total"
	SourceInvoice   = "invoice"
)

type PriceMismatch struct {
	Style    string  `json:"style"`
	Color    string  `json:"color"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
	Source   string  `json:"source"`
}

// PriceDiscrepancy groups every mispriced line of a claim, keyed by line.
type PriceDiscrepancy struct {
	Lines map[string]PriceMismatch `json:"lines"`
}

func (PriceDiscrepancy) alertType() AlertType { return AlertPriceDiscrepancy }

type QuantityOverage struct {
	Style   string  `json:"style"`
	Color   string  `json:"color"`
	Ordered float64 `json:"ordered"`
	Claimed float64 `json:"claimed"`
}

// QuantityExceeded groups every line claiming more than was ordered.
type QuantityExceeded struct {
	Lines map[string]QuantityOverage `json:"lines"`
}

func (QuantityExceeded) alertType() AlertType { return AlertQuantityExceeded }

type DelayedClaim struct {
	CreatedAt     time.Time `json:"created_at"`
	AgeDays       int       `json:"age_days"`
	ThresholdDays int       `json:"threshold_days"`
}

func (DelayedClaim) alertType() AlertType { return AlertDelayedClaim }

// NewAlert builds an alert whose type and message follow from details.
func NewAlert(details AlertDetails) Alert {
	a := Alert{Type: details.alertType(), Details: details}
	a.Message = Describe(a)
	return a
}

func (a Alert) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type    AlertType    `json:"type"`
		Message string       `json:"message"`
		Details AlertDetails `json:"details"`
	}
	return json.Marshal(wire(a))
}

func (a *Alert) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    AlertType       `json:"type"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var details AlertDetails
	switch raw.Type {
	case AlertPriceDiscrepancy:
		var d PriceDiscrepancy
		if err := decodeDetails(raw.Details, &d); err != nil {
			return err
		}
		details = d
	case AlertQuantityExceeded:
		var d QuantityExceeded
		if err := decodeDetails(raw.Details, &d); err != nil {
			return err
		}
		details = d
	case AlertDelayedClaim:
		var d DelayedClaim
		if err := decodeDetails(raw.Details, &d); err != nil {
			return err
		}
		details = d
	default:
		return fmt.Errorf("unknown alert type %q", raw.Type)
	}

	*a = Alert{Type: raw.Type, Message: raw.Message, Details: details}
	return nil
}

func decodeDetails(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// Describe renders an alert for display.
func Describe(a Alert) string {
	switch d := a.Details.(type) {
	case PriceDiscrepancy:
		parts := make([]string, 0, len(d.Lines))
		for _, key := range sortedKeys(d.Lines) {
			m := d.Lines[key]
			parts = append(parts, fmt.Sprintf("%s expected %.2f, got %.2f (%s)", lineLabel(key, m.Style, m.Color), m.Expected, m.Actual, m.Source))
		}
		return fmt.Sprintf("Price discrepancy on %d line(s): %s", len(d.Lines), strings.Join(parts, "; "))
	case QuantityExceeded:
		parts := make([]string, 0, len(d.Lines))
		for _, key := range sortedKeys(d.Lines) {
			q := d.Lines[key]
			parts = append(parts, fmt.Sprintf("%s claimed %s of %s ordered", lineLabel(key, q.Style, q.Color), formatQty(q.Claimed), formatQty(q.Ordered)))
		}
		return fmt.Sprintf("Claimed quantity exceeds ordered quantity on %d line(s): %s", len(d.Lines), strings.Join(parts, "; "))
	case DelayedClaim:
		return fmt.Sprintf("Claim open for %d days (threshold %d days)", d.AgeDays, d.ThresholdDays)
	default:
		return a.Message
	}
}

func lineLabel(key, style, color string) string {
	if style == "" && color == "" {
		return key
	}
	return strings.TrimSpace(style + " " + color)
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
