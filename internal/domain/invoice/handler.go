package invoice

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"claimdesk/internal/pkg/response"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListInvoices handles GET /api/v1/invoices
func (h *Handler) ListInvoices(c *gin.Context) {
	invoices, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, invoices)
}

// GetInvoice handles GET /api/v1/invoices/:id
func (h *Handler) GetInvoice(c *gin.Context) {
	inv, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	h.writeOne(c, inv, err)
}

// GetInvoiceByNumber handles GET /api/v1/invoices/number/:number
func (h *Handler) GetInvoiceByNumber(c *gin.Context) {
	inv, err := h.repo.GetByNumber(c.Request.Context(), c.Param("number"))
	h.writeOne(c, inv, err)
}

func (h *Handler) writeOne(c *gin.Context, inv *Invoice, err error) {
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			response.Error(c, http.StatusNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
			return
		}
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, inv)
}
