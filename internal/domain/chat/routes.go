package chat

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the assistant relay. Extra handlers (rate limiting)
// run before POST /chat; websocket frames go through the handler's Limiter.
func RegisterRoutes(r *gin.RouterGroup, h *Handler, middleware ...gin.HandlerFunc) {
	post := append(append([]gin.HandlerFunc{}, middleware...), h.Chat)

	chat := r.Group("/chat")
	{
		chat.POST("", post...)
		chat.GET("/ws", h.WebSocket)
	}
}
