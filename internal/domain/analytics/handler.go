package analytics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"claimdesk/internal/domain/claim"
	"claimdesk/internal/pkg/response"
)

// Source supplies the claim snapshot to aggregate.
type Source interface {
	Claims() []claim.Claim
}

// Handler handles analytics HTTP requests
type Handler struct {
	source Source
	now    func() time.Time
}

// NewHandler creates analytics handler
func NewHandler(source Source) *Handler {
	return &Handler{source: source, now: time.Now}
}

// ByStatus handles GET /api/v1/analytics/status
func (h *Handler) ByStatus(c *gin.Context) {
	response.Success(c, http.StatusOK, GroupByStatus(h.source.Claims()))
}

// ByDepartment handles GET /api/v1/analytics/departments
func (h *Handler) ByDepartment(c *gin.Context) {
	response.Success(c, http.StatusOK, GroupByDepartment(h.source.Claims()))
}

// Financials handles GET /api/v1/analytics/financials
func (h *Handler) Financials(c *gin.Context) {
	response.Success(c, http.StatusOK, FinancialMetrics(h.source.Claims()))
}

type timeSeriesResponse struct {
	Period   Period        `json:"period"`
	Metric   Metric        `json:"metric"`
	Points   []SeriesPoint `json:"points"`
	Current  float64       `json:"current"`
	Previous float64       `json:"previous"`
	Trend    float64       `json:"trend"`
}

// TimeSeries handles GET /api/v1/analytics/timeseries
func (h *Handler) TimeSeries(c *gin.Context) {
	period := Period(c.DefaultQuery("period", string(PeriodMonth)))
	metric := Metric(c.DefaultQuery("metric", string(MetricCount)))
	claims := h.source.Claims()
	now := h.now()

	points, err := TimeSeries(claims, period, metric, now)
	if err != nil {
		writeError(c, err)
		return
	}
	current, previous, err := PeriodTotals(claims, period, metric, now)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, timeSeriesResponse{
		Period:   period,
		Metric:   metric,
		Points:   points,
		Current:  current,
		Previous: previous,
		Trend:    Trend(current, previous),
	})
}

// Causes handles GET /api/v1/analytics/causes
func (h *Handler) Causes(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 {
		response.Error(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
		return
	}
	response.Success(c, http.StatusOK, TopCauses(h.source.Claims(), limit))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownPeriod):
		response.Error(c, http.StatusBadRequest, "INVALID_PERIOD", "period must be week, month or quarter")
	case errors.Is(err, ErrUnknownMetric):
		response.Error(c, http.StatusBadRequest, "INVALID_METRIC", "metric must be count, claimed_amount or solution_amount")
	default:
		response.Internal(c, err)
	}
}
