package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/usdc_batchpay/handler"
	"github.com/usdc_batchpay/model"
	"github.com/usdc_batchpay/repository"
	"github.com/usdc_batchpay/router"
	"github.com/usdc_batchpay/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	listSvc := service.NewListService(repository.NewListRepository(db))
	paymentSvc := service.NewPaymentService(context.Background(),
		repository.NewLedgerRepository(db),
		service.NewHTTPBroadcaster("http://127.0.0.1:1"), time.Second)

	return router.SetupRouter(
		handler.NewListHandler(listSvc),
		handler.NewCSVHandler(listSvc),
		handler.NewPaymentHandler(paymentSvc, listSvc),
		handler.NewContactHandler(nil),
	)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const testOwner = "noble1owneraaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestListLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	addr := model.AddressPrefix + strings.Repeat("q", 38)
	w := doJSON(t, r, http.MethodPost, "/api/lists",
		`{"owner":"`+testOwner+`","name":"team","listType":"fixed","recipients":[{"name":"Alice","address":"`+addr+`"}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.RecipientList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 1, created.TotalRecipients)

	w = doJSON(t, r, http.MethodGet, "/api/lists/1?owner="+testOwner, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alice")

	w = doJSON(t, r, http.MethodGet, "/api/lists/999?owner="+testOwner, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateListValidationOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/lists",
		`{"owner":"`+testOwner+`","name":"  ","listType":"fixed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name")
}

func TestTemplateEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/csv/template?listType=percentage", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Percentage")
}

func TestContactsUnconfiguredDirectory(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/contacts?owner="+testOwner, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
