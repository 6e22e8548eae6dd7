package checklist

import "github.com/gin-gonic/gin"

// RegisterRoutes registers checklist routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/claims/:id/checklists", handler.ListChecklists)
	r.POST("/claims/:id/checklists", handler.CreateChecklist)

	checklists := r.Group("/checklists")
	{
		checklists.POST("/:id/items", handler.AddItem)
		checklists.DELETE("/:id", handler.DeleteChecklist)
	}

	r.PATCH("/checklist-items/:id", handler.UpdateItem)
}
