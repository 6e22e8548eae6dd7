// Package analytics computes dashboard aggregates over a claim snapshot.
// Every function is pure: it never mutates its input.
package analytics

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"claimdesk/internal/domain/claim"
)

var (
	ErrUnknownPeriod = errors.New("unknown period")
	ErrUnknownMetric = errors.New("unknown metric")
)

// ChartPoint is one labelled value.
type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// GroupByStatus counts claims per status. Every status is present, in
// pipeline order.
func GroupByStatus(claims []claim.Claim) []ChartPoint {
	counts := make(map[claim.Status]int, len(claim.Statuses))
	for i := range claims {
		counts[claims[i].Status]++
	}
	out := make([]ChartPoint, 0, len(claim.Statuses))
	for _, s := range claim.Statuses {
		out = append(out, ChartPoint{Name: string(s), Value: counts[s]})
	}
	return out
}

// GroupByDepartment counts claims per department. Every department is present.
func GroupByDepartment(claims []claim.Claim) []ChartPoint {
	counts := make(map[claim.Department]int, len(claim.Departments))
	for i := range claims {
		counts[claims[i].Department]++
	}
	out := make([]ChartPoint, 0, len(claim.Departments))
	for _, d := range claim.Departments {
		out = append(out, ChartPoint{Name: string(d), Value: counts[d]})
	}
	return out
}

type Financials struct {
	TotalClaimed  float64 `json:"total_claimed"`
	TotalSolution float64 `json:"total_solution"`
	TotalSaved    float64 `json:"total_saved"`
}

// FinancialMetrics sums the three amount columns.
func FinancialMetrics(claims []claim.Claim) Financials {
	claimed, solution, saved := decimal.Zero, decimal.Zero, decimal.Zero
	for i := range claims {
		claimed = claimed.Add(decimal.NewFromFloat(claims[i].ClaimedAmount))
		solution = solution.Add(decimal.NewFromFloat(claims[i].SolutionAmount))
		saved = saved.Add(decimal.NewFromFloat(claims[i].SavedAmount))
	}
	return Financials{
		TotalClaimed:  claimed.InexactFloat64(),
		TotalSolution: solution.InexactFloat64(),
		TotalSaved:    saved.InexactFloat64(),
	}
}

type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
)

// Days returns the window length of p.
func (p Period) Days() (int, error) {
	switch p {
	case PeriodWeek:
		return 7, nil
	case PeriodMonth:
		return 30, nil
	case PeriodQuarter:
		return 90, nil
	}
	return 0, ErrUnknownPeriod
}

type Metric string

const (
	MetricCount          Metric = "count"
	MetricClaimedAmount  Metric = "claimed_amount"
	MetricSolutionAmount Metric = "solution_amount"
)

func (m Metric) value(c *claim.Claim) decimal.Decimal {
	switch m {
	case MetricClaimedAmount:
		return decimal.NewFromFloat(c.ClaimedAmount)
	case MetricSolutionAmount:
		return decimal.NewFromFloat(c.SolutionAmount)
	default:
		return decimal.NewFromInt(1)
	}
}

func (m Metric) valid() bool {
	return m == MetricCount || m == MetricClaimedAmount || m == MetricSolutionAmount
}

// SeriesPoint is one day of a time series.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// TimeSeries buckets claims by UTC creation day over the period ending on
// now's day, oldest day first. Days without claims are present with zeros.
func TimeSeries(claims []claim.Claim, period Period, metric Metric, now time.Time) ([]SeriesPoint, error) {
	days, err := period.Days()
	if err != nil {
		return nil, err
	}
	if !metric.valid() {
		return nil, ErrUnknownMetric
	}

	today := startOfDay(now)
	first := today.AddDate(0, 0, -(days - 1))

	counts := make([]int, days)
	sums := make([]decimal.Decimal, days)
	for i := range claims {
		idx := int(startOfDay(claims[i].CreationDate).Sub(first).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		counts[idx]++
		sums[idx] = sums[idx].Add(metric.value(&claims[i]))
	}

	out := make([]SeriesPoint, days)
	for i := range out {
		out[i] = SeriesPoint{
			Date:  first.AddDate(0, 0, i).Format("2006-01-02"),
			Count: counts[i],
			Value: sums[i].InexactFloat64(),
		}
	}
	return out, nil
}

// PeriodTotals returns the metric summed over the period ending today and
// over the period immediately before it.
func PeriodTotals(claims []claim.Claim, period Period, metric Metric, now time.Time) (current, previous float64, err error) {
	days, err := period.Days()
	if err != nil {
		return 0, 0, err
	}
	if !metric.valid() {
		return 0, 0, ErrUnknownMetric
	}

	end := startOfDay(now).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)
	prevStart := start.AddDate(0, 0, -days)

	cur, prev := decimal.Zero, decimal.Zero
	for i := range claims {
		created := claims[i].CreationDate.UTC()
		switch {
		case !created.Before(start) && created.Before(end):
			cur = cur.Add(metric.value(&claims[i]))
		case !created.Before(prevStart) && created.Before(start):
			prev = prev.Add(metric.value(&claims[i]))
		}
	}
	return cur.InexactFloat64(), prev.InexactFloat64(), nil
}

// Trend is the percentage change from previous to current. With no
// previous value it is 100 when current is positive and 0 otherwise.
func Trend(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// TopCauses counts identified causes, most frequent first. Claims without
// a cause count as "Unknown". Ties keep first-seen order.
func TopCauses(claims []claim.Claim, limit int) []ChartPoint {
	counts := make(map[string]int)
	var order []string
	for i := range claims {
		cause := "Unknown"
		if c := claims[i].IdentifiedCause; c != nil && *c != "" {
			cause = *c
		}
		if _, seen := counts[cause]; !seen {
			order = append(order, cause)
		}
		counts[cause]++
	}

	out := make([]ChartPoint, 0, len(order))
	for _, cause := range order {
		out = append(out, ChartPoint{Name: cause, Value: counts[cause]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
