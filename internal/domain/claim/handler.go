package claim

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"claimdesk/internal/pkg/response"
	"claimdesk/internal/pkg/validator"
)

// Handler handles claim HTTP requests
type Handler struct {
	service *Service
	store   *Store
}

// NewHandler creates claim handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, store: service.Store()}
}

type listResponse struct {
	Claims  []Claim `json:"claims"`
	Total   int     `json:"total"`
	Loading bool    `json:"loading"`
	Error   string  `json:"error,omitempty"`
}

// ListClaims handles GET /api/v1/claims
func (h *Handler) ListClaims(c *gin.Context) {
	crit, err := criteriaFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	spec := SortSpec{Field: c.Query("sort"), Direction: Direction(strings.ToLower(c.Query("direction")))}
	h.respondView(c, crit, spec)
}

// ListAlerts handles GET /api/v1/alerts
func (h *Handler) ListAlerts(c *gin.Context) {
	hasAlerts := true
	crit := Criteria{
		HasAlerts:  &hasAlerts,
		AlertType:  AlertType(c.Query("type")),
		Department: Department(c.Query("department")),
		Search:     c.Query("search"),
	}
	if crit.AlertType != "" && !crit.AlertType.Valid() {
		response.Error(c, http.StatusBadRequest, "INVALID_ALERT_TYPE", "Unknown alert type")
		return
	}

	spec := SortSpec{Field: "alert_count", Direction: Desc}
	if field := c.Query("sort"); field != "" {
		spec = SortSpec{Field: field, Direction: Direction(strings.ToLower(c.Query("direction")))}
	}
	h.respondView(c, crit, spec)
}

func (h *Handler) respondView(c *gin.Context, crit Criteria, spec SortSpec) {
	state := h.store.State()
	if !state.Loaded && state.Error != "" {
		response.Error(c, http.StatusServiceUnavailable, "FETCH_FAILED", state.Error)
		return
	}

	rows, err := Apply(state.Claims, crit, spec)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, listResponse{
		Claims:  rows,
		Total:   len(rows),
		Loading: state.Loading,
		Error:   state.Error,
	})
}

func criteriaFromQuery(c *gin.Context) (Criteria, error) {
	crit := Criteria{
		Status:        Status(c.Query("status")),
		Department:    Department(c.Query("department")),
		ClaimCategory: Category(c.Query("claim_category")),
		Installed:     strings.ToLower(c.Query("installed")),
		AlertType:     AlertType(c.Query("alert_type")),
		Search:        c.Query("search"),
		SearchIn:      SearchScope(c.Query("search_in")),
	}

	switch crit.Installed {
	case "", "yes", "no":
	default:
		return Criteria{}, invalid("installed", "must be yes or no")
	}
	switch crit.SearchIn {
	case SearchAll, SearchClaimNumber, SearchClientName:
	default:
		return Criteria{}, invalid("search_in", "must be claim_number or client_name")
	}
	if raw := c.Query("has_alerts"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Criteria{}, invalid("has_alerts", "must be true or false")
		}
		crit.HasAlerts = &v
	}
	return crit, nil
}

// RefreshClaims handles POST /api/v1/claims/refresh
func (h *Handler) RefreshClaims(c *gin.Context) {
	claims, err := h.store.FetchAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"total": len(claims)})
}

// GetTotals handles GET /api/v1/claims/totals
func (h *Handler) GetTotals(c *gin.Context) {
	response.Success(c, http.StatusOK, h.store.CalculateTotals())
}

// GetClaim handles GET /api/v1/claims/:id
func (h *Handler) GetClaim(c *gin.Context) {
	claim, err := h.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, claim)
}

// CreateClaim handles POST /api/v1/claims
func (h *Handler) CreateClaim(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.Validation(c, errs)
		return
	}

	in, err := req.Input()
	if err != nil {
		h.writeError(c, err)
		return
	}
	claim, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, claim)
}

// UpdateClaim handles PATCH /api/v1/claims/:id
func (h *Handler) UpdateClaim(c *gin.Context) {
	var req UpdateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.Validation(c, errs)
		return
	}

	patch, err := req.Patch()
	if err != nil {
		h.writeError(c, err)
		return
	}
	claim, err := h.store.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, claim)
}

// RecomputeAlerts handles POST /api/v1/claims/:id/alerts/recompute
func (h *Handler) RecomputeAlerts(c *gin.Context) {
	claim, err := h.service.RecomputeAlerts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, claim)
}

// ListProducts handles GET /api/v1/claims/:id/products
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, products)
}

// AddProduct handles POST /api/v1/claims/:id/products
func (h *Handler) AddProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.Validation(c, errs)
		return
	}

	product, err := h.service.AddProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, product)
}

// UpdateProduct handles PATCH /api/v1/claims/:id/products/:productId
func (h *Handler) UpdateProduct(c *gin.Context) {
	var patch ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), c.Param("id"), c.Param("productId"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/claims/:id/products/:productId
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.service.DeleteProduct(c.Request.Context(), c.Param("id"), c.Param("productId")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ListDocuments handles GET /api/v1/claims/:id/documents
func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.service.ListDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, docs)
}

// AddDocument handles POST /api/v1/claims/:id/documents
func (h *Handler) AddDocument(c *gin.Context) {
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.Validation(c, errs)
		return
	}

	doc, err := h.service.AddDocument(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, doc)
}

// DeleteDocument handles DELETE /api/v1/claims/:id/documents/:documentId
func (h *Handler) DeleteDocument(c *gin.Context) {
	if err := h.service.DeleteDocument(c.Request.Context(), c.Param("id"), c.Param("documentId")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrUnknownSortField):
		response.Error(c, http.StatusBadRequest, "UNKNOWN_SORT_FIELD", err.Error())
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", verr.Error(), map[string]string{verr.Field: verr.Message})
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrFetch):
		_ = c.Error(err)
		response.Error(c, http.StatusServiceUnavailable, "FETCH_FAILED", "Claim storage is unavailable")
	default:
		response.Internal(c, err)
	}
}
