package claim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoices struct {
	lines []InvoiceLine
	err   error
	refs  []string
}

func (f *fakeInvoices) ResolveLines(_ context.Context, ref string) ([]InvoiceLine, error) {
	f.refs = append(f.refs, ref)
	return f.lines, f.err
}

var evalNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEvaluator(invoices InvoiceResolver) *AlertEvaluator {
	e := NewAlertEvaluator(AlertConfig{DelayThreshold: 30 * 24 * time.Hour, PriceTolerance: 0.01}, invoices)
	e.now = func() time.Time { return evalNow }
	return e
}

func freshClaim() *Claim {
	return &Claim{
		ID:           "c1",
		ClaimNumber:  "CLM-2024-0001",
		Status:       StatusNew,
		CreationDate: evalNow.Add(-24 * time.Hour),
	}
}

func TestEvaluateQuantityExceeded(t *testing.T) {
	e := newTestEvaluator(nil)
	products := []Product{{ID: "p1", Style: "Tivoli", Color: "Ash", Quantity: 10, ClaimedQuantity: 15, PricePerSY: 5, TotalPrice: 50}}

	alerts := e.Evaluate(context.Background(), freshClaim(), products)

	require.Len(t, alerts, 1)
	assert.Equal(t, AlertQuantityExceeded, alerts[0].Type)
	details, ok := alerts[0].Details.(QuantityExceeded)
	require.True(t, ok)
	assert.Equal(t, QuantityOverage{Style: "Tivoli", Color: "Ash", Ordered: 10, Claimed: 15}, details.Lines["p1"])
	assert.Contains(t, alerts[0].Message, "claimed 15 of 10 ordered")
}

func TestEvaluateAggregatesPriceDiscrepancies(t *testing.T) {
	e := newTestEvaluator(nil)
	products := []Product{
		{ID: "p1", Quantity: 10, PricePerSY: 5, TotalPrice: 45},
		{ID: "p2", Quantity: 3, PricePerSY: 2.5, TotalPrice: 7},
		{ID: "p3", Quantity: 1, PricePerSY: 9.99, TotalPrice: 10.99},
		{ID: "p4", Quantity: 3, PricePerSY: 0.1, TotalPrice: 0.3},
	}

	alerts := e.Evaluate(context.Background(), freshClaim(), products)

	require.Len(t, alerts, 1)
	details, ok := alerts[0].Details.(PriceDiscrepancy)
	require.True(t, ok)
	assert.Len(t, details.Lines, 3)
	assert.Equal(t, PriceMismatch{Expected: 50, Actual: 45, Source: SourceLineTotal}, details.Lines["p1"])
	assert.Equal(t, 7.5, details.Lines["p2"].Expected)
	assert.NotContains(t, details.Lines, "p4")
}

func TestEvaluateRuleOrder(t *testing.T) {
	e := newTestEvaluator(nil)
	c := freshClaim()
	c.CreationDate = evalNow.Add(-45 * 24 * time.Hour)
	products := []Product{{ID: "p1", Quantity: 1, ClaimedQuantity: 2, PricePerSY: 10, TotalPrice: 12}}

	alerts := e.Evaluate(context.Background(), c, products)

	require.Len(t, alerts, 3)
	assert.Equal(t, AlertPriceDiscrepancy, alerts[0].Type)
	assert.Equal(t, AlertQuantityExceeded, alerts[1].Type)
	assert.Equal(t, AlertDelayedClaim, alerts[2].Type)

	delay := alerts[2].Details.(DelayedClaim)
	assert.Equal(t, 45, delay.AgeDays)
	assert.Equal(t, 30, delay.ThresholdDays)
}

func TestEvaluateDelayedSkipsResolvedClaims(t *testing.T) {
	e := newTestEvaluator(nil)
	for _, status := range []Status{StatusAccepted, StatusClosed} {
		c := freshClaim()
		c.Status = status
		c.CreationDate = evalNow.Add(-90 * 24 * time.Hour)
		assert.Empty(t, e.Evaluate(context.Background(), c, nil), status)
	}

	c := freshClaim()
	c.Status = StatusNegotiation
	c.CreationDate = evalNow.Add(-90 * 24 * time.Hour)
	assert.Len(t, e.Evaluate(context.Background(), c, nil), 1)
}

func TestEvaluateNoProductsNoLineAlerts(t *testing.T) {
	e := newTestEvaluator(&fakeInvoices{lines: []InvoiceLine{{Description: "x", UnitPrice: 1}}})
	c := freshClaim()
	link := "INV-1"
	c.InvoiceLink = &link

	alerts := e.Evaluate(context.Background(), c, nil)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestEvaluateInvoiceCrossCheck(t *testing.T) {
	invoices := &fakeInvoices{lines: []InvoiceLine{
		{Description: "TIVOLI 12x36 ASH", UnitPrice: 6, Quantity: 10},
		{Description: "Broadloom Harbor Mist", UnitPrice: 20, Quantity: 4},
	}}
	e := newTestEvaluator(invoices)
	c := freshClaim()
	link := "https://erp.example.com/invoices/INV-2024-77"
	c.InvoiceLink = &link
	products := []Product{
		{ID: "p1", Style: "Tivoli", Color: "Ash", Quantity: 10, PricePerSY: 5, TotalPrice: 50},
		{ID: "p2", Description: "broadloom harbor mist", Style: "Harbor", Color: "Mist", Quantity: 4, PricePerSY: 20.005, TotalPrice: 80.02},
	}

	alerts := e.Evaluate(context.Background(), c, products)

	require.Len(t, alerts, 1)
	assert.Equal(t, []string{link}, invoices.refs)
	details := alerts[0].Details.(PriceDiscrepancy)
	require.Len(t, details.Lines, 1)
	assert.Equal(t, PriceMismatch{Style: "Tivoli", Color: "Ash", Expected: 6, Actual: 5, Source: SourceInvoice}, details.Lines["p1"])
}

func TestEvaluateInvoiceLookupFailuresAreNotFatal(t *testing.T) {
	products := []Product{{ID: "p1", Style: "Tivoli", Color: "Ash", Quantity: 10, PricePerSY: 5, TotalPrice: 50}}
	link := "INV-404"

	for _, err := range []error{ErrInvoiceNotFound, errors.New("connection reset")} {
		e := newTestEvaluator(&fakeInvoices{err: err})
		c := freshClaim()
		c.InvoiceLink = &link
		assert.Empty(t, e.Evaluate(context.Background(), c, products), err.Error())
	}
}
