package checklist

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"claimdesk/internal/pkg/response"
	"claimdesk/internal/pkg/validator"
)

// Handler handles checklist HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates checklist handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListChecklists handles GET /api/v1/claims/:id/checklists
func (h *Handler) ListChecklists(c *gin.Context) {
	lists, err := h.service.ListByClaim(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, lists)
}

// CreateChecklist handles POST /api/v1/claims/:id/checklists
func (h *Handler) CreateChecklist(c *gin.Context) {
	var req CreateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.Validation(c, errs)
		return
	}

	list, err := h.service.Create(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, list)
}

// AddItem handles POST /api/v1/checklists/:id/items
func (h *Handler) AddItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.Validation(c, errs)
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, item)
}

// UpdateItem handles PATCH /api/v1/checklist-items/:id
func (h *Handler) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	item, err := h.service.UpdateItem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

// DeleteChecklist handles DELETE /api/v1/checklists/:id
func (h *Handler) DeleteChecklist(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrChecklistNotFound):
		response.Error(c, http.StatusNotFound, "CHECKLIST_NOT_FOUND", "Checklist not found")
	case errors.Is(err, ErrItemNotFound):
		response.Error(c, http.StatusNotFound, "ITEM_NOT_FOUND", "Checklist item not found")
	case errors.Is(err, ErrClaimNotFound):
		response.Error(c, http.StatusNotFound, "CLAIM_NOT_FOUND", "Claim not found")
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	default:
		response.Internal(c, err)
	}
}
