package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	claimsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claims_created_total",
			Help: "Total number of claims created",
		},
		[]string{"department"},
	)

	claimStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claim_status_changes_total",
			Help: "Total number of claim status transitions",
		},
		[]string{"from", "to"},
	)

	claimAlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claim_alerts_raised_total",
			Help: "Total number of alerts produced by alert evaluation",
		},
		[]string{"type"},
	)

	chatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total number of chat relay requests",
		},
		[]string{"transport", "outcome"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		// FullPath is the registered template (/claims/:id), which keeps label
		// cardinality bounded. Unmatched routes collapse into one series.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordClaimCreated records a claim creation
func RecordClaimCreated(department string) {
	claimsCreated.WithLabelValues(department).Inc()
}

// RecordClaimStatusChange records a claim status transition
func RecordClaimStatusChange(from, to string) {
	claimStatusChanges.WithLabelValues(from, to).Inc()
}

// RecordAlertsRaised records alerts produced by one evaluation
func RecordAlertsRaised(alertType string, n int) {
	if n <= 0 {
		return
	}
	claimAlertsRaised.WithLabelValues(alertType).Add(float64(n))
}

// RecordChatRequest records a chat relay outcome
func RecordChatRequest(transport, outcome string) {
	chatRequests.WithLabelValues(transport, outcome).Inc()
}
