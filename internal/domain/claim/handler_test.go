package claim

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func setupTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, repo, db := setupTestStore(t)
	owner := seedClient(t, db, "Harbor Interiors", "HRB")
	evaluator := NewAlertEvaluator(AlertConfig{DelayThreshold: 30 * 24 * time.Hour, PriceTolerance: 0.01}, nil)
	evaluator.now = func() time.Time { return storeNow }
	svc := NewService(store, repo, evaluator)
	svc.now = func() time.Time { return storeNow }

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), NewHandler(svc))
	return r, owner.ID
}

func doJSONRequest(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	reader := bytes.NewReader(nil)
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func createClaimBody(clientID string) map[string]any {
	return map[string]any{
		"client_id":        clientID,
		"department":       "Sales",
		"claim_category":   "Manufacturing Defect",
		"product_category": "Tiles",
		"claimed_amount":   "800",
		"solution_amount":  200,
	}
}

func TestClaimEndpointsLifecycle(t *testing.T) {
	r, clientID := setupTestRouter(t)

	rr, env := doJSONRequest(t, r, http.MethodPost, "/api/v1/claims", createClaimBody(clientID))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created Claim
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "CLM-2024-0001", created.ClaimNumber)
	assert.Equal(t, 600.0, created.SavedAmount)

	rr, env = doJSONRequest(t, r, http.MethodPost, "/api/v1/claims/"+created.ID+"/products", map[string]any{
		"style": "Tivoli", "color": "Ash", "quantity": 10, "claimed_quantity": 15, "price_per_sy": 5, "total_price": 50,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr, env = doJSONRequest(t, r, http.MethodGet, "/api/v1/alerts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, 1, list.Claims[0].AlertCount)
	assert.Equal(t, AlertQuantityExceeded, list.Claims[0].Alerts[0].Type)

	rr, env = doJSONRequest(t, r, http.MethodPatch, "/api/v1/claims/"+created.ID, map[string]any{"status": "Closed"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, env = doJSONRequest(t, r, http.MethodGet, "/api/v1/claims?status=Closed&has_alerts=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)
	assert.Len(t, list.Claims[0].Alerts, 1)

	rr, env = doJSONRequest(t, r, http.MethodGet, "/api/v1/claims/totals", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var totals Totals
	require.NoError(t, json.Unmarshal(env.Data, &totals))
	assert.Equal(t, Totals{TotalSolution: 200, TotalClaimed: 800, TotalSaved: 600}, totals)
}

func TestClaimEndpointsErrors(t *testing.T) {
	r, clientID := setupTestRouter(t)

	rr, env := doJSONRequest(t, r, http.MethodGet, "/api/v1/claims?sort=clam_number", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "UNKNOWN_SORT_FIELD", env.Error.Code)

	rr, env = doJSONRequest(t, r, http.MethodGet, "/api/v1/claims?has_alerts=maybe", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "must be true or false", env.Error.Details["has_alerts"])

	rr, env = doJSONRequest(t, r, http.MethodPost, "/api/v1/claims", createClaimBody("no-such-client"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, env.Error.Details["client_id"], "no-such-client")

	body := createClaimBody(clientID)
	delete(body, "department")
	rr, env = doJSONRequest(t, r, http.MethodPost, "/api/v1/claims", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "required", env.Error.Details["department"])

	rr, env = doJSONRequest(t, r, http.MethodPatch, "/api/v1/claims/missing", map[string]any{"status": "Closed"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	rr, _ = doJSONRequest(t, r, http.MethodGet, "/api/v1/alerts?type=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestClaimNumberFormatIsAFieldError(t *testing.T) {
	r, clientID := setupTestRouter(t)

	body := createClaimBody(clientID)
	body["claim_number"] = "CLM-24-1"
	rr, env := doJSONRequest(t, r, http.MethodPost, "/api/v1/claims", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "claimnumber", env.Error.Details["claim_number"])

	body["claim_number"] = " CLM-2024-0042 "
	rr, env = doJSONRequest(t, r, http.MethodPost, "/api/v1/claims", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created Claim
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "CLM-2024-0042", created.ClaimNumber)

	rr, env = doJSONRequest(t, r, http.MethodPatch, "/api/v1/claims/"+created.ID, map[string]any{"claim_number": "2024-0042"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "claimnumber", env.Error.Details["claim_number"])
}
