package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/claims/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/claims/:id", "200"))

	for _, id := range []string{"a", "b", "c"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/claims/"+id, nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/claims/:id", "200"))
	assert.Equal(t, 3.0, after-before)
}

func TestRecordAlertsRaised_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(claimAlertsRaised.WithLabelValues("quantity_exceeded"))

	RecordAlertsRaised("quantity_exceeded", 0)
	RecordAlertsRaised("quantity_exceeded", 2)

	after := testutil.ToFloat64(claimAlertsRaised.WithLabelValues("quantity_exceeded"))
	assert.Equal(t, 2.0, after-before)
}
