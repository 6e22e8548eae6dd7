package product

import "github.com/gin-gonic/gin"

// RegisterRoutes registers catalog routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	products := r.Group("/products")
	{
		products.GET("", handler.ListProducts)
		products.GET("/code/:code", handler.GetProductByCode)
		products.GET("/:id", handler.GetProduct)
	}
}
