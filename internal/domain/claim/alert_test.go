package claim

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertJSONKeepsTypedDetails(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	alerts := []Alert{
		NewAlert(PriceDiscrepancy{Lines: map[string]PriceMismatch{"p1": {Style: "Tivoli", Color: "Ash", Expected: 50, Actual: 45, Source: SourceLineTotal}}}),
		NewAlert(DelayedClaim{CreatedAt: created, AgeDays: 40, ThresholdDays: 30}),
	}

	raw, err := json.Marshal(alerts)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"price_discrepancy"`)
	assert.Contains(t, string(raw), `"expected":50`)

	var decoded []Alert
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, alerts, decoded)
}

func TestAlertUnmarshalRejectsUnknownType(t *testing.T) {
	var a Alert
	err := json.Unmarshal([]byte(`{"type":"mystery","message":"?","details":{}}`), &a)
	assert.Error(t, err)
}

func TestAlertUnmarshalToleratesMissingDetails(t *testing.T) {
	var a Alert
	require.NoError(t, json.Unmarshal([]byte(`{"type":"delayed_claim","message":"late"}`), &a))
	assert.Equal(t, DelayedClaim{}, a.Details)
	assert.Equal(t, "late", a.Message)
}

func TestDescribe(t *testing.T) {
	price := NewAlert(PriceDiscrepancy{Lines: map[string]PriceMismatch{
		"b": {Style: "Harbor", Color: "Mist", Expected: 80, Actual: 75.5, Source: SourceInvoice},
		"a": {Expected: 10, Actual: 12, Source: SourceLineTotal},
	}})
	assert.Equal(t, "Price discrepancy on 2 line(s): a expected 10.00, got 12.00 (line_total); Harbor Mist expected 80.00, got 75.50 (invoice)", price.Message)

	delayed := NewAlert(DelayedClaim{AgeDays: 45, ThresholdDays: 30})
	assert.Equal(t, "Claim open for 45 days (threshold 30 days)", Describe(delayed))

	assert.Equal(t, "free text", Describe(Alert{Message: "free text"}))
}
