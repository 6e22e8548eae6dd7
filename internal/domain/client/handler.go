package client

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"claimdesk/internal/pkg/response"
	"claimdesk/internal/pkg/validator"
)

// Handler handles client HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates client handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListClients handles GET /api/v1/clients
func (h *Handler) ListClients(c *gin.Context) {
	clients, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, clients)
}

// GetClient handles GET /api/v1/clients/:id
func (h *Handler) GetClient(c *gin.Context) {
	client, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, client)
}

// CreateClient handles POST /api/v1/clients
func (h *Handler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.Validation(c, errs)
		return
	}

	client, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, client)
}

// UpdateClient handles PATCH /api/v1/clients/:id
func (h *Handler) UpdateClient(c *gin.Context) {
	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.Validation(c, errs)
		return
	}

	client, err := h.service.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, client)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrClientNotFound):
		response.Error(c, http.StatusNotFound, "CLIENT_NOT_FOUND", "Client not found")
	case errors.Is(err, ErrCodeExists):
		response.Error(c, http.StatusConflict, "CODE_EXISTS", "Client code already exists")
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	default:
		response.Internal(c, err)
	}
}
