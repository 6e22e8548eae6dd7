package invoice

import "github.com/gin-gonic/gin"

// RegisterRoutes registers invoice routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	invoices := r.Group("/invoices")
	{
		invoices.GET("", handler.ListInvoices)
		invoices.GET("/number/:number", handler.GetInvoiceByNumber)
		invoices.GET("/:id", handler.GetInvoice)
	}
}
