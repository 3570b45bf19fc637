package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"stockroom/internal/assistant"
	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/inventory"
	"stockroom/internal/metrics"
	"stockroom/internal/middleware"
	"stockroom/internal/models"
	"stockroom/internal/vision"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	reply string
}

func (f *fakeChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
	}, nil
}

type fakeAnnotator struct{}

func (fakeAnnotator) Annotate(context.Context, []byte) (*models.VisionResult, error) {
	return &models.VisionResult{Labels: []string{"Banana"}, Texts: []string{}, Objects: []string{"Banana"}}, nil
}

type testServer struct {
	router *gin.Engine
	chat   *fakeChat
	cookie *http.Cookie
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Initialize(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedUsers(db, [][2]string{{"user1", "user123"}}))

	cfg := &config.Config{
		Env:             "development",
		SessionDuration: time.Hour,
		MaxUploadMB:     1,
		ImageDir:        filepath.Join(t.TempDir(), "images"),
	}

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	chat := &fakeChat{}

	svc := inventory.NewService(db, inventory.WithMetrics(collector), inventory.WithImageDir(cfg.ImageDir, cfg.MaxUploadBytes()))
	h := New(db, cfg, svc,
		assistant.NewGateway(chat, "", collector),
		vision.NewGateway(fakeAnnotator{}, nil, "", collector),
		reg)

	r := gin.New()
	SetupRoutes(r, h)

	return &testServer{router: r, chat: chat}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/login", map[string]string{"username": "user1", "password": "user123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			s.cookie = c
		}
	}
	require.NotNil(t, s.cookie)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestLogin(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodPost, "/login", map[string]string{"username": "user1", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTHENTICATION_FAILURE", decode(t, w)["code"])

	w = s.do(t, http.MethodPost, "/login", map[string]string{"username": "USER1", "password": "user123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/inventory", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	s.login(t)
	w = s.do(t, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInventoryFlow(t *testing.T) {
	s := setupServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/api/inventory", map[string]any{
		"product_name": "Milk", "category": "Dairy & Alternatives", "quantity": 2, "unit": "L", "min_stock_level": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/inventory", map[string]any{
		"product_name": "Milk", "category": "Dairy & Alternatives", "quantity": 1, "unit": "L",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["merged"])
	assert.Equal(t, 3.0, body["item"].(map[string]any)["quantity"])

	w = s.do(t, http.MethodPost, "/api/inventory/Milk/use", map[string]any{"quantity": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "cannot use more than available quantity", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/inventory/Milk/use", map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["low_stock"])

	w = s.do(t, http.MethodGet, "/api/inventory/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)

	w = s.do(t, http.MethodGet, "/api/usage?product=Milk&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["events"], 3)

	w = s.do(t, http.MethodPut, "/api/inventory", map[string]any{"rows": []map[string]any{
		{"product_name": "Milk", "quantity": 4},
		{"product_name": "Nope", "quantity": 1},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, 1.0, body["updated"])
	assert.Equal(t, 1.0, body["failed"])

	w = s.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["total_items"])

	w = s.do(t, http.MethodDelete, "/api/inventory/Milk", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodDelete, "/api/inventory/Milk", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/usage?product=Milk", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["events"])
}

func TestProductNameWithSlash(t *testing.T) {
	s := setupServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/api/inventory", map[string]any{
		"product_name": "Salt/Pepper", "category": "Grocery", "quantity": 2, "unit": "pcs",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/inventory/Salt%2FPepper/use", map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1.0, decode(t, w)["item"].(map[string]any)["quantity"])

	w = s.do(t, http.MethodDelete, "/api/inventory/Salt%2FPepper", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/inventory", nil)
	assert.Empty(t, decode(t, w)["items"])
}

func TestBulkEditRequiresQuantity(t *testing.T) {
	s := setupServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/api/inventory", map[string]any{
		"product_name": "Milk", "category": "Dairy & Alternatives", "quantity": 3, "unit": "L",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPut, "/api/inventory", map[string]any{"rows": []map[string]any{
		{"product_name": "Milk", "min_stock_level": 1},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 0.0, body["updated"])
	assert.Equal(t, 1.0, body["failed"])

	w = s.do(t, http.MethodGet, "/api/inventory", nil)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, 3.0, items[0].(map[string]any)["quantity"])
}

func TestAddProductValidation(t *testing.T) {
	s := setupServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/api/inventory", map[string]any{"product_name": "Milk", "category": "Dairy", "quantity": -1, "unit": "L"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])

	w = s.do(t, http.MethodGet, "/api/usage?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategories(t *testing.T) {
	s := setupServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "Snacks"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["categories"], "Snacks")
}

func TestAskAppliesSuggestion(t *testing.T) {
	s := setupServer(t)
	s.login(t)
	s.chat.reply = "Product Name: Bananas\nCategory: Fresh Produce\nUnit: kg\nQuantity: 1.5"

	w := s.do(t, http.MethodPost, "/api/assistant", map[string]any{"question": "I bought bananas"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.NotNil(t, body["applied"])

	w = s.do(t, http.MethodGet, "/api/inventory", nil)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Bananas", items[0].(map[string]any)["product_name"])

	w = s.do(t, http.MethodPost, "/api/assistant", map[string]any{"question": "I bought bananas", "apply": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["applied"])
}

func TestReport(t *testing.T) {
	s := setupServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/api/assistant/report", map[string]string{"type": "summary"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No inventory data available for report generation.", decode(t, w)["report"])

	w = s.do(t, http.MethodPost, "/api/assistant/report", map[string]string{"type": "weekly"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVisionUpload(t *testing.T) {
	s := setupServer(t)
	s.login(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "banana.png")
	require.NoError(t, err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("save", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/vision", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(s.cookie)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Banana", body["enhanced_results"].(map[string]any)["product_name"])
	assert.NotEmpty(t, body["image_path"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	s.login(t)
	s.do(t, http.MethodPost, "/api/inventory", map[string]any{"product_name": "Tea", "category": "Beverages", "quantity": 1, "unit": "box"})

	w = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stockroom_inventory_operations_total")
}
