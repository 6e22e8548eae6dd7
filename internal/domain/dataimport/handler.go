package dataimport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"claimdesk/internal/pkg/response"
)

const MaxFileSize = 20 * 1024 * 1024 // 20 MB

// Handler accepts CSV uploads for the legacy importers.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Import handles POST /api/v1/import/:kind with a multipart "file" field.
func (h *Handler) Import(c *gin.Context) {
	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "UNKNOWN_IMPORT_KIND", err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "no file provided")
		return
	}
	if fileHeader.Size == 0 {
		response.Error(c, http.StatusBadRequest, "EMPTY_FILE", ErrEmptyFile.Error())
		return
	}
	if fileHeader.Size > MaxFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", ErrFileTooLarge.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, err)
		return
	}
	defer file.Close()

	res, err := h.service.Import(c.Request.Context(), kind, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrMalformedCSV):
			response.Error(c, http.StatusBadRequest, "INVALID_CSV", err.Error())
		default:
			response.Internal(c, err)
		}
		return
	}
	response.Success(c, http.StatusOK, res)
}
