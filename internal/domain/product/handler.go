package product

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"claimdesk/internal/pkg/response"
)

// Handler handles catalog HTTP requests
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListProducts handles GET /api/v1/products?q=
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.repo.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, products)
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	h.writeOne(c, func() (*Product, error) { return h.repo.GetByID(c.Request.Context(), c.Param("id")) })
}

// GetProductByCode handles GET /api/v1/products/code/:code
func (h *Handler) GetProductByCode(c *gin.Context) {
	h.writeOne(c, func() (*Product, error) { return h.repo.GetByCode(c.Request.Context(), c.Param("code")) })
}

func (h *Handler) writeOne(c *gin.Context, load func() (*Product, error)) {
	p, err := load()
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			response.Error(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}
