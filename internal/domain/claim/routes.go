package claim

import "github.com/gin-gonic/gin"

// RegisterRoutes registers claim routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	claims := r.Group("/claims")
	{
		claims.GET("", handler.ListClaims)
		claims.POST("", handler.CreateClaim)
		claims.POST("/refresh", handler.RefreshClaims)
		claims.GET("/totals", handler.GetTotals)
		claims.GET("/:id", handler.GetClaim)
		claims.PATCH("/:id", handler.UpdateClaim)
		claims.POST("/:id/alerts/recompute", handler.RecomputeAlerts)

		claims.GET("/:id/products", handler.ListProducts)
		claims.POST("/:id/products", handler.AddProduct)
		claims.PATCH("/:id/products/:productId", handler.UpdateProduct)
		claims.DELETE("/:id/products/:productId", handler.DeleteProduct)

		claims.GET("/:id/documents", handler.ListDocuments)
		claims.POST("/:id/documents", handler.AddDocument)
		claims.DELETE("/:id/documents/:documentId", handler.DeleteDocument)
	}

	r.GET("/alerts", handler.ListAlerts)
}
