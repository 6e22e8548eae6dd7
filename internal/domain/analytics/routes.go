package analytics

import "github.com/gin-gonic/gin"

// RegisterRoutes registers analytics routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	analytics := r.Group("/analytics")
	{
		analytics.GET("/status", handler.ByStatus)
		analytics.GET("/departments", handler.ByDepartment)
		analytics.GET("/financials", handler.Financials)
		analytics.GET("/timeseries", handler.TimeSeries)
		analytics.GET("/causes", handler.Causes)
	}
}
