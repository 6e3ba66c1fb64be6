package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/puntosmx/loyalty-server/internal/api"
	"github.com/puntosmx/loyalty-server/internal/config"
	"github.com/puntosmx/loyalty-server/internal/models"
	"github.com/puntosmx/loyalty-server/internal/repository"
	"github.com/puntosmx/loyalty-server/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestContext holds all dependencies for tests. The service runs over the
// in-memory repository so no database is needed.
type TestContext struct {
	Router     *gin.Engine
	Repository *repository.MemoryRepository
	Service    service.Service
}

// SetupTestContext creates a new test context with initialized dependencies
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	repo := repository.NewMemoryRepository()
	svc := service.NewDefaultService(repo, config.LedgerConfig{
		PointValue:         decimal.RequireFromString("1.00"),
		MaxReferenceLength: 64,
	})

	handler := api.NewHandler(svc)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.SetupRoutes(router)

	return &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
	}
}

// RegisterClient creates a client through the service and returns it
func (tc *TestContext) RegisterClient(t *testing.T, email string) *models.Client {
	t.Helper()

	client, err := tc.Service.RegisterClient(context.Background(), models.RegisterClientRequest{
		Name:  "Test Client",
		Email: email,
	})
	require.NoError(t, err)
	return client
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DecodeResponse unmarshals the recorded body into out
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
