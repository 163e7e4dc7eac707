package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, cfg Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	uc := newTestUseCase(t, cfg, NewMemoryOrderArchive())
	handler := NewStorefrontHandler(uc, noop.NewTracerProvider().Tracer("test"), cfg)

	r := gin.New()
	r.Use(recovery(zap.NewNop()), requestLogger(zap.NewNop()))
	handler.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	view := decode[SessionView](t, w)
	require.NotEmpty(t, view.SessionID)
	return view.SessionID
}

func TestStorefrontHandler_HealthCheck(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestStorefrontHandler_Menu(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := doJSON(t, r, http.MethodGet, "/api/menu?q=hamburguer", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Categories []map[string]string `json:"categories"`
		Products   []map[string]any    `json:"products"`
	}](t, w)
	assert.Len(t, body.Categories, 4)
	require.NotEmpty(t, body.Products)
	for _, p := range body.Products {
		assert.Equal(t, "hamburguers", p["category"])
	}
}

func TestStorefrontHandler_Restaurant(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := doJSON(t, r, http.MethodGet, "/api/restaurant", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bella Vista")
	assert.Contains(t, w.Body.String(), "5511987654321")
}

func TestStorefrontHandler_RequiresSessionHeader(t *testing.T) {
	r := newTestRouter(t, testConfig())

	missing := doJSON(t, r, http.MethodGet, "/api/session", "", nil)
	invalid := doJSON(t, r, http.MethodGet, "/api/session", "abc", nil)

	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}

func TestStorefrontHandler_UnknownSession(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := doJSON(t, r, http.MethodGet, "/api/session", "6f1c2b9e-3d4a-4c5b-8e7f-0a1b2c3d4e5f", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStorefrontHandler_AddItemValidation(t *testing.T) {
	r := newTestRouter(t, testConfig())
	id := createSession(t, r)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing product", map[string]any{"quantity": 1}, http.StatusBadRequest},
		{"zero quantity", map[string]any{"product_id": "1", "quantity": 0}, http.StatusBadRequest},
		{"unknown product", map[string]any{"product_id": "404", "quantity": 1}, http.StatusNotFound},
		{"unknown addon", map[string]any{"product_id": "1", "quantity": 1, "addons": []string{"Picles"}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/cart/items", id, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestStorefrontHandler_InvalidCoupon(t *testing.T) {
	r := newTestRouter(t, testConfig())
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/coupon", id, map[string]string{"code": "FREE"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStorefrontHandler_CheckoutFlow(t *testing.T) {
	// Arrange
	r := newTestRouter(t, testConfig())
	id := createSession(t, r)

	steps := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/cart/items", map[string]any{"product_id": "1", "quantity": 1}},
		{http.MethodPost, "/api/cart/items", map[string]any{"product_id": "4", "quantity": 2}},
		{http.MethodPost, "/api/coupon", map[string]string{"code": "PEP10"}},
		{http.MethodPut, "/api/customer", map[string]string{"name": "Ana", "phone": "11999998888"}},
		{http.MethodPut, "/api/delivery", map[string]string{"type": "delivery", "address": "Rua A, 123", "cep": "06820-200"}},
		{http.MethodPut, "/api/payment", map[string]string{"method": "pix"}},
	}
	for _, s := range steps {
		w := doJSON(t, r, s.method, s.path, id, s.body)
		require.Equal(t, http.StatusOK, w.Code, "%s %s: %s", s.method, s.path, w.Body.String())
	}

	// Act
	w := doJSON(t, r, http.MethodPost, "/api/checkout", id, nil)

	// Assert
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[OrderView](t, w)
	assert.Equal(t, "BEL0001", order.ID)
	assertMoney(t, "33.03", order.Total)
	assert.Equal(t, "Em confirmação", order.StatusLabel)
	assert.Equal(t, "Pedido recebido", order.Headline)
	assert.True(t, strings.HasPrefix(order.WhatsAppURL, "https://wa.me/5511987654321?text="))

	w = doJSON(t, r, http.MethodGet, "/api/orders/BEL0001", id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[OrderView](t, w)
	link, err := url.Parse(detail.WhatsAppURL)
	require.NoError(t, err)
	assert.Equal(t, statusEnquiryMessage(detail.Order), link.Query().Get("text"))
	assert.NotContains(t, link.RawQuery, "+")

	w = doJSON(t, r, http.MethodPatch, "/api/orders/BEL0001/status", "", map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Entregue")

	w = doJSON(t, r, http.MethodGet, "/api/orders", id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Orders []OrderView `json:"orders"`
	}](t, w)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "delivered", string(list.Orders[0].Status))
}

func TestStorefrontHandler_CheckoutEmptyCart(t *testing.T) {
	r := newTestRouter(t, testConfig())
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/checkout", id, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStorefrontHandler_OrderNotFound(t *testing.T) {
	r := newTestRouter(t, testConfig())
	id := createSession(t, r)

	get := doJSON(t, r, http.MethodGet, "/api/orders/BEL0404", id, nil)
	patch := doJSON(t, r, http.MethodPatch, "/api/orders/BEL0404/status", "", map[string]string{"status": "ready"})
	invalid := doJSON(t, r, http.MethodPatch, "/api/orders/BEL0404/status", "", map[string]string{"status": "lost"})

	assert.Equal(t, http.StatusNotFound, get.Code)
	assert.Equal(t, http.StatusNotFound, patch.Code)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}

func TestStorefrontHandler_CloseSession(t *testing.T) {
	r := newTestRouter(t, testConfig())
	id := createSession(t, r)

	w := doJSON(t, r, http.MethodDelete, "/api/sessions/current", id, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
