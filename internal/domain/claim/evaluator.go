package claim

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
)

// AlertConfig holds the evaluation thresholds.
type AlertConfig struct {
	DelayThreshold time.Duration
	PriceTolerance float64
}

// InvoiceLine is one line of the invoice a claim links to.
type InvoiceLine struct {
	Description string
	UnitPrice   float64
	Quantity    float64
}

// InvoiceResolver looks up invoice lines by reference. ErrInvoiceNotFound
// skips the invoice cross-check.
type InvoiceResolver interface {
	ResolveLines(ctx context.Context, ref string) ([]InvoiceLine, error)
}

// AlertEvaluator derives the alerts of a claim from its line items and age.
type AlertEvaluator struct {
	cfg      AlertConfig
	invoices InvoiceResolver
	now      func() time.Time
}

// NewAlertEvaluator creates an evaluator. invoices may be nil.
func NewAlertEvaluator(cfg AlertConfig, invoices InvoiceResolver) *AlertEvaluator {
	return &AlertEvaluator{cfg: cfg, invoices: invoices, now: time.Now}
}

// Evaluate returns the full replacement alert list for c. Rules run in the
// order price, quantity, delay and each yields at most one alert.
func (e *AlertEvaluator) Evaluate(ctx context.Context, c *Claim, products []Product) []Alert {
	alerts := make([]Alert, 0, len(AlertTypes))

	if d, ok := e.priceDiscrepancy(ctx, c, products); ok {
		alerts = append(alerts, NewAlert(d))
	}
	if d, ok := quantityExceeded(products); ok {
		alerts = append(alerts, NewAlert(d))
	}
	if d, ok := e.delayed(c); ok {
		alerts = append(alerts, NewAlert(d))
	}
	return alerts
}

func (e *AlertEvaluator) priceDiscrepancy(ctx context.Context, c *Claim, products []Product) (PriceDiscrepancy, bool) {
	lines := make(map[string]PriceMismatch)

	for _, p := range products {
		expected := decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(p.PricePerSY)).Round(2)
		actual := decimal.NewFromFloat(p.TotalPrice).Round(2)
		if !expected.Equal(actual) {
			lines[p.Key()] = PriceMismatch{
				Style:    p.Style,
				Color:    p.Color,
				Expected: expected.InexactFloat64(),
				Actual:   actual.InexactFloat64(),
				Source:   SourceLineTotal,
			}
		}
	}

	// A line whose own total is inconsistent keeps that finding; the
	// invoice comparison only reports lines that are internally consistent.
	for key, m := range e.invoiceMismatches(ctx, c, products) {
		if _, exists := lines[key]; !exists {
			lines[key] = m
		}
	}

	if len(lines) == 0 {
		return PriceDiscrepancy{}, false
	}
	return PriceDiscrepancy{Lines: lines}, true
}

func (e *AlertEvaluator) invoiceMismatches(ctx context.Context, c *Claim, products []Product) map[string]PriceMismatch {
	if e.invoices == nil || c.InvoiceLink == nil || strings.TrimSpace(*c.InvoiceLink) == "" || len(products) == 0 {
		return nil
	}

	invLines, err := e.invoices.ResolveLines(ctx, *c.InvoiceLink)
	if errors.Is(err, ErrInvoiceNotFound) {
		return nil
	}
	if err != nil {
		log.WithFields(log.Fields{"op": "evaluate_alerts", "claim_id": c.ID}).WithError(err).Warn("invoice lookup failed, skipping cross-check")
		return nil
	}

	tolerance := decimal.NewFromFloat(e.cfg.PriceTolerance)
	out := make(map[string]PriceMismatch)
	for _, p := range products {
		line, ok := matchInvoiceLine(invLines, p)
		if !ok {
			continue
		}
		invoiced := decimal.NewFromFloat(line.UnitPrice).Round(2)
		claimed := decimal.NewFromFloat(p.PricePerSY).Round(2)
		if invoiced.Sub(claimed).Abs().GreaterThan(tolerance) {
			out[p.Key()] = PriceMismatch{
				Style:    p.Style,
				Color:    p.Color,
				Expected: invoiced.InexactFloat64(),
				Actual:   claimed.InexactFloat64(),
				Source:   SourceInvoice,
			}
		}
	}
	return out
}

// matchInvoiceLine finds the invoice line for p by exact description, then
// by a description mentioning both style and color.
func matchInvoiceLine(lines []InvoiceLine, p Product) (InvoiceLine, bool) {
	if desc := strings.TrimSpace(p.Description); desc != "" {
		for _, l := range lines {
			if strings.EqualFold(strings.TrimSpace(l.Description), desc) {
				return l, true
			}
		}
	}
	if p.Style == "" || p.Color == "" {
		return InvoiceLine{}, false
	}
	style, color := strings.ToLower(p.Style), strings.ToLower(p.Color)
	for _, l := range lines {
		desc := strings.ToLower(l.Description)
		if strings.Contains(desc, style) && strings.Contains(desc, color) {
			return l, true
		}
	}
	return InvoiceLine{}, false
}

func quantityExceeded(products []Product) (QuantityExceeded, bool) {
	lines := make(map[string]QuantityOverage)
	for _, p := range products {
		if p.ClaimedQuantity > p.Quantity {
			lines[p.Key()] = QuantityOverage{
				Style:   p.Style,
				Color:   p.Color,
				Ordered: p.Quantity,
				Claimed: p.ClaimedQuantity,
			}
		}
	}
	if len(lines) == 0 {
		return QuantityExceeded{}, false
	}
	return QuantityExceeded{Lines: lines}, true
}

func (e *AlertEvaluator) delayed(c *Claim) (DelayedClaim, bool) {
	if e.cfg.DelayThreshold <= 0 || c.Status.IsResolved() || c.CreationDate.IsZero() {
		return DelayedClaim{}, false
	}
	age := e.now().Sub(c.CreationDate)
	if age <= e.cfg.DelayThreshold {
		return DelayedClaim{}, false
	}
	return DelayedClaim{
		CreatedAt:     c.CreationDate,
		AgeDays:       int(age.Hours() / 24),
		ThresholdDays: int(e.cfg.DelayThreshold.Hours() / 24),
	}, true
}
