package dataimport

import "github.com/gin-gonic/gin"

// RegisterRoutes registers CSV import routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/import/:kind", handler.Import)
}
