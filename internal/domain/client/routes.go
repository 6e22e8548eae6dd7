package client

import "github.com/gin-gonic/gin"

// RegisterRoutes registers client routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	clients := r.Group("/clients")
	{
		clients.GET("", handler.ListClients)
		clients.GET("/:id", handler.GetClient)
		clients.POST("", handler.CreateClient)
		clients.PATCH("/:id", handler.UpdateClient)
	}
}
