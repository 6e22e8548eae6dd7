package claim

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimdesk/internal/domain/client"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func withAlert(c Claim, t AlertType) Claim {
	var details AlertDetails
	switch t {
	case AlertPriceDiscrepancy:
		details = PriceDiscrepancy{Lines: map[string]PriceMismatch{"p": {Expected: 1, Actual: 2}}}
	case AlertQuantityExceeded:
		details = QuantityExceeded{Lines: map[string]QuantityOverage{"p": {Ordered: 1, Claimed: 2}}}
	default:
		details = DelayedClaim{AgeDays: 40, ThresholdDays: 30}
	}
	c.Alerts = append(c.Alerts, NewAlert(details))
	return c
}

func ids(claims []Claim) []string {
	out := make([]string, len(claims))
	for i, c := range claims {
		out[i] = c.ID
	}
	return out
}

func TestApplyStableOnEqualKeys(t *testing.T) {
	claims := []Claim{
		{ID: "a", Status: StatusNew, CreationDate: day(2)},
		{ID: "b", Status: StatusNew, CreationDate: day(1)},
	}

	out, err := Apply(claims, Criteria{}, SortSpec{Field: "status", Direction: Asc})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(out))

	out, err = Apply(claims, Criteria{}, SortSpec{Field: "status", Direction: Desc})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(out))
}

func TestApplyResortKeepsCreationOrderForTies(t *testing.T) {
	claims := []Claim{
		{ID: "c1", CreationDate: day(3), Department: DepartmentSales, ClaimedAmount: 10},
		{ID: "c2", CreationDate: day(1), Department: DepartmentSales, ClaimedAmount: 30},
		{ID: "c3", CreationDate: day(2), Department: DepartmentSales, ClaimedAmount: 20},
	}

	byDate, err := Apply(claims, Criteria{}, SortSpec{Field: "creation_date", Direction: Desc})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c3", "c2"}, ids(byDate))

	byDept, err := Apply(byDate, Criteria{}, SortSpec{Field: "department"})
	require.NoError(t, err)
	assert.Equal(t, ids(byDate), ids(byDept))

	byAmount, err := Apply(byDate, Criteria{}, SortSpec{Field: "claimed_amount", Direction: Desc})
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c3", "c1"}, ids(byAmount))
}

func TestApplyStatusAndAlertsFilter(t *testing.T) {
	closedWithAlerts := withAlert(Claim{ID: "closed-alerts", Status: StatusClosed}, AlertDelayedClaim)
	closedClean := Claim{ID: "closed-clean", Status: StatusClosed}
	openWithAlerts := withAlert(Claim{ID: "open-alerts", Status: StatusAnalyzing}, AlertPriceDiscrepancy)
	hasAlerts := true

	out, err := Apply([]Claim{closedWithAlerts, closedClean, openWithAlerts},
		Criteria{Status: StatusClosed, HasAlerts: &hasAlerts}, SortSpec{})
	require.NoError(t, err)
	assert.Equal(t, []string{"closed-alerts"}, ids(out))
}

func TestApplyIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	claims := []Claim{
		withAlert(Claim{ID: "x", ClaimNumber: "CLM-2024-0003", SolutionAmount: 5}, AlertQuantityExceeded),
		{ID: "y", ClaimNumber: "CLM-2024-0001", SolutionAmount: 5},
		{ID: "z", ClaimNumber: "CLM-2024-0002", SolutionAmount: 1},
	}
	before := append([]Claim(nil), claims...)
	spec := SortSpec{Field: "solution_amount", Direction: Desc}

	first, err := Apply(claims, Criteria{}, spec)
	require.NoError(t, err)
	second, err := Apply(claims, Criteria{}, spec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"x", "y", "z"}, ids(first))
	assert.Equal(t, before, claims)
}

func TestApplyUnknownSortField(t *testing.T) {
	claims := []Claim{{ID: "b"}, {ID: "a"}}

	_, err := Apply(claims, Criteria{}, SortSpec{Field: "clam_number"})
	assert.True(t, errors.Is(err, ErrUnknownSortField), "got %v", err)

	out, err := Apply(claims, Criteria{}, SortSpec{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(out))
}

func TestApplyRejectsBadDirection(t *testing.T) {
	_, err := Apply(nil, Criteria{}, SortSpec{Field: "status", Direction: "sideways"})
	assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
}

func TestApplySearchScopes(t *testing.T) {
	claims := []Claim{
		{ID: "1", ClaimNumber: "CLM-2024-0042", Client: &client.Client{Name: "Harbor Interiors"}},
		{ID: "2", ClaimNumber: "CLM-2024-0007", Client: &client.Client{Name: "Northwind 42 Flooring"}},
		{ID: "3", ClaimNumber: "CLM-2023-0100"},
	}

	out, _ := Apply(claims, Criteria{Search: " 42 "}, SortSpec{})
	assert.Equal(t, []string{"1", "2"}, ids(out))

	out, _ = Apply(claims, Criteria{Search: "42", SearchIn: SearchClaimNumber}, SortSpec{})
	assert.Equal(t, []string{"1"}, ids(out))

	out, _ = Apply(claims, Criteria{Search: "HARBOR", SearchIn: SearchClientName}, SortSpec{})
	assert.Equal(t, []string{"1"}, ids(out))
}

func TestApplyInstalledAndAlertType(t *testing.T) {
	claims := []Claim{
		withAlert(Claim{ID: "1", Installed: true}, AlertPriceDiscrepancy),
		withAlert(Claim{ID: "2"}, AlertDelayedClaim),
		{ID: "3", Installed: true},
	}

	out, _ := Apply(claims, Criteria{Installed: "yes"}, SortSpec{})
	assert.Equal(t, []string{"1", "3"}, ids(out))

	out, _ = Apply(claims, Criteria{Installed: "no"}, SortSpec{})
	assert.Equal(t, []string{"2"}, ids(out))

	out, _ = Apply(claims, Criteria{AlertType: AlertDelayedClaim}, SortSpec{})
	assert.Equal(t, []string{"2"}, ids(out))

	noAlerts := false
	out, _ = Apply(claims, Criteria{HasAlerts: &noAlerts}, SortSpec{})
	assert.Equal(t, []string{"3"}, ids(out))
}

func TestApplyClientNameUsesCollation(t *testing.T) {
	claims := []Claim{
		{ID: "z", Client: &client.Client{Name: "Zenith Carpets"}},
		{ID: "e", Client: &client.Client{Name: "Émile Tapis"}},
		{ID: "a", Client: &client.Client{Name: "atlas floors"}},
	}

	out, err := Apply(claims, Criteria{}, SortSpec{Field: "client_name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "e", "z"}, ids(out))
}

func TestApplyInstallationDateNilSortsFirst(t *testing.T) {
	d := day(5)
	claims := []Claim{{ID: "set", InstallationDate: &d}, {ID: "unset"}}

	out, err := Apply(claims, Criteria{}, SortSpec{Field: "installation_date"})
	require.NoError(t, err)
	assert.Equal(t, []string{"unset", "set"}, ids(out))
}
