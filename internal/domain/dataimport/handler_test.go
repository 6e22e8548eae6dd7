package dataimport

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := setupTestService(t)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), NewHandler(svc))
	return r
}

func uploadCSV(t *testing.T, r *gin.Engine, kind, field, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, kind+".csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/"+kind, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestImportHandler(t *testing.T) {
	r := setupTestRouter(t)

	w := uploadCSV(t, r, "clients", "file", clientsCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool   `json:"success"`
		Data    Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, KindClients, resp.Data.Kind)
	assert.Equal(t, 3, resp.Data.Inserted)
	assert.Equal(t, 2, resp.Data.Skipped)
}

func TestImportHandlerErrors(t *testing.T) {
	r := setupTestRouter(t)

	w := uploadCSV(t, r, "claims", "file", clientsCSV)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = uploadCSV(t, r, "clients", "attachment", clientsCSV)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "NO_FILE")

	w = uploadCSV(t, r, "products", "file", "a,b\n\"broken,1\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CSV")
}
