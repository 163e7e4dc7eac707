package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSession = "3f1f2b8e-6f7a-4a55-9a53-0c1f6f9c2d10"

// fakeAPI grava as requisições recebidas e responde com corpos fixos
type fakeAPI struct {
	t        *testing.T
	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]any
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	api := &fakeAPI{t: t}
	mux := http.NewServeMux()

	sessionJSON := `{"session_id":"` + testSession + `","state":{"cart":[{"id":"1","name":"Hambúrguer Clássico","price":"24.90","quantity":2}],"orders":[]},` +
		`"totals":{"subtotal":"49.80","discount":"0","total":"49.80"},"item_count":2,"delivery_fee":"0","grand_total":"49.80"}`

	mux.HandleFunc("POST /api/sessions", api.reply(http.StatusCreated, sessionJSON))
	mux.HandleFunc("GET /api/session", api.reply(http.StatusOK, sessionJSON))
	mux.HandleFunc("POST /api/cart/items", api.reply(http.StatusOK, sessionJSON))
	mux.HandleFunc("GET /api/menu", api.reply(http.StatusOK,
		`{"categories":[{"id":"bebidas","name":"Bebidas"}],"products":[{"id":"4","name":"Refrigerante 350ml","price":"5.90","category":"bebidas"}]}`))
	mux.HandleFunc("POST /api/checkout", api.reply(http.StatusUnprocessableEntity, `{"error":"cart is empty"}`))
	mux.HandleFunc("GET /api/orders/{id}", api.reply(http.StatusOK,
		`{"id":"BEL0001","date":"2025-10-02T19:30:00Z","total":"33.03","status":"on_route","items":[],`+
			`"customer":{"name":"Ana","phone":"1199"},"delivery":{"type":"pickup"},"payment":{"method":"pix"},`+
			`"status_label":"A caminho","headline":"Pedido a caminho","whatsapp_url":"https://wa.me/5511987654321?text=x"}`))
	mux.HandleFunc("PATCH /api/orders/{id}/status", api.reply(http.StatusOK, `{"id":"BEL0001","status":"ready"}`))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		if len(raw) > 0 {
			assert.NoError(a.t, json.Unmarshal(raw, &decoded))
		}
		a.mu.Lock()
		a.requests = append(a.requests, r)
		a.bodies = append(a.bodies, decoded)
		a.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (a *fakeAPI) last() (*http.Request, map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(a.t, a.requests)
	i := len(a.requests) - 1
	return a.requests[i], a.bodies[i]
}

func TestClient_NewSessionAdoptsID(t *testing.T) {
	// Arrange
	api, srv := newFakeAPI(t)
	c := NewClient(srv.URL, "", zap.NewNop())
	ctx := context.Background()

	// Act
	view, err := c.NewSession(ctx)
	require.NoError(t, err)
	_, err = c.Session(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, testSession, view.SessionID)
	assert.Equal(t, "49.8", view.Totals.Total.String())
	req, _ := api.last()
	assert.Equal(t, testSession, req.Header.Get("X-Session-ID"))
}

func TestClient_RequiresSession(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := NewClient(srv.URL, "", zap.NewNop())

	_, err := c.Session(context.Background())

	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClient_AddItemSendsPayload(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := NewClient(srv.URL, testSession, zap.NewNop())

	view, err := c.AddItem(context.Background(), "1", 2, "sem cebola", []string{"Bacon extra"})

	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
	_, body := api.last()
	assert.Equal(t, "1", body["product_id"])
	assert.Equal(t, float64(2), body["quantity"])
	assert.Equal(t, "sem cebola", body["observation"])
	assert.Equal(t, []any{"Bacon extra"}, body["addons"])
}

func TestClient_MenuForwardsFilters(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := NewClient(srv.URL, "", zap.NewNop())

	menu, err := c.Menu(context.Background(), "refri", "bebidas")

	require.NoError(t, err)
	require.Len(t, menu.Products, 1)
	assert.Equal(t, "5.9", menu.Products[0].Price.String())
	req, _ := api.last()
	assert.Equal(t, "refri", req.URL.Query().Get("q"))
	assert.Equal(t, "bebidas", req.URL.Query().Get("category"))
}

func TestClient_APIErrorIsSurfaced(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := NewClient(srv.URL, testSession, zap.NewNop())

	_, err := c.Checkout(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart is empty")
	assert.Contains(t, err.Error(), "422")
}

func TestClient_Order(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := NewClient(srv.URL, testSession, zap.NewNop())

	order, err := c.Order(context.Background(), "BEL0001")

	require.NoError(t, err)
	assert.Equal(t, "BEL0001", order.ID)
	assert.Equal(t, "A caminho", order.StatusLabel)
	assert.Equal(t, "33.03", order.Total.String())
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_CartAdd(t *testing.T) {
	api, srv := newFakeAPI(t)

	out, err := runCLI(t, "--api", srv.URL, "--session", testSession, "cart", "add", "1", "--qty", "2")

	require.NoError(t, err)
	assert.Contains(t, out, "2x")
	assert.Contains(t, out, "Hambúrguer Clássico")
	assert.Contains(t, out, "Total: R$ 49,80")
	_, body := api.last()
	assert.Equal(t, float64(2), body["quantity"])
}

func TestCLI_Menu(t *testing.T) {
	_, srv := newFakeAPI(t)

	out, err := runCLI(t, "--api", srv.URL, "menu", "refri", "--category", "bebidas")

	require.NoError(t, err)
	assert.Contains(t, out, "Refrigerante 350ml")
	assert.Contains(t, out, "R$ 5,90")
}

func TestCLI_OrderStatusRejectsUnknownStatus(t *testing.T) {
	api, srv := newFakeAPI(t)

	_, err := runCLI(t, "--api", srv.URL, "orders", "status", "BEL0001", "lost")

	require.Error(t, err)
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Empty(t, api.requests)
}

func TestCLI_OrderStatus(t *testing.T) {
	api, srv := newFakeAPI(t)

	out, err := runCLI(t, "--api", srv.URL, "orders", "status", "BEL0001", "ready")

	require.NoError(t, err)
	assert.Contains(t, out, "Pronto para retirar")
	_, body := api.last()
	assert.Equal(t, "ready", body["status"])
}
