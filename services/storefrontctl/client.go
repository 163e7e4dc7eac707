package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pepmenu/storefront/session"
)

// ErrNoSession é retornado quando um comando da sessão roda sem --session
var ErrNoSession = errors.New("no session: run 'storefrontctl session new' and pass --session or set PEPMENU_SESSION")

// SessionView espelha a resposta de sessão do serviço
type SessionView struct {
	SessionID   string          `json:"session_id"`
	State       session.State   `json:"state"`
	Totals      session.Totals  `json:"totals"`
	ItemCount   int             `json:"item_count"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// OrderView espelha o pedido retornado pelo serviço
type OrderView struct {
	session.Order
	StatusLabel string `json:"status_label"`
	Headline    string `json:"headline"`
	WhatsAppURL string `json:"whatsapp_url"`
}

// MenuCategory é uma seção do cardápio
type MenuCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Menu é a resposta de /api/menu
type Menu struct {
	Categories []MenuCategory    `json:"categories"`
	Products   []session.Product `json:"products"`
}

type apiError struct {
	Error string `json:"error"`
}

// Client conversa com a API da loja
type Client struct {
	http      *resty.Client
	sessionID string
	logger    *zap.Logger
}

// NewClient cria um cliente para a API em baseURL
func NewClient(baseURL, sessionID string, logger *zap.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: rc, sessionID: sessionID, logger: logger}
}

func (c *Client) request(ctx context.Context, withSession bool) (*resty.Request, error) {
	req := c.http.R().SetContext(ctx).SetError(&apiError{})
	if withSession {
		if c.sessionID == "" {
			return nil, ErrNoSession
		}
		req.SetHeader("X-Session-ID", c.sessionID)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, withSession bool, body, result any) error {
	req, err := c.request(ctx, withSession)
	if err != nil {
		return err
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("latency", resp.Time()),
	)
	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status(), e.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status())
	}
	return nil
}

// NewSession abre uma nova sessão e passa a usá-la
func (c *Client) NewSession(ctx context.Context) (SessionView, error) {
	var view SessionView
	if err := c.do(ctx, resty.MethodPost, "/api/sessions", false, nil, &view); err != nil {
		return SessionView{}, err
	}
	c.sessionID = view.SessionID
	return view, nil
}

// Session retorna o snapshot da sessão
func (c *Client) Session(ctx context.Context) (SessionView, error) {
	var view SessionView
	err := c.do(ctx, resty.MethodGet, "/api/session", true, nil, &view)
	return view, err
}

// Menu busca o cardápio, com filtro opcional
func (c *Client) Menu(ctx context.Context, query, category string) (Menu, error) {
	req, _ := c.request(ctx, false)
	var menu Menu
	resp, err := req.
		SetQueryParam("q", query).
		SetQueryParam("category", category).
		SetResult(&menu).
		Get("/api/menu")
	if err != nil {
		return Menu{}, fmt.Errorf("GET /api/menu: %w", err)
	}
	if resp.IsError() {
		return Menu{}, fmt.Errorf("GET /api/menu: %s", resp.Status())
	}
	return menu, nil
}

// AddItem adiciona um produto ao carrinho
func (c *Client) AddItem(ctx context.Context, productID string, quantity int, observation string, addons []string) (SessionView, error) {
	var view SessionView
	err := c.do(ctx, resty.MethodPost, "/api/cart/items", true, map[string]any{
		"product_id":  productID,
		"quantity":    quantity,
		"observation": observation,
		"addons":      addons,
	}, &view)
	return view, err
}

// UpdateItem altera a quantidade de um produto
func (c *Client) UpdateItem(ctx context.Context, productID string, quantity int) (SessionView, error) {
	var view SessionView
	err := c.do(ctx, resty.MethodPut, "/api/cart/items/"+productID, true, map[string]any{"quantity": quantity}, &view)
	return view, err
}

// RemoveItem remove um produto do carrinho
func (c *Client) RemoveItem(ctx context.Context, productID string) (SessionView, error) {
	var view SessionView
	err := c.do(ctx, resty.MethodDelete, "/api/cart/items/"+productID, true, nil, &view)
	return view, err
}

// ClearCart esvazia o carrinho
func (c *Client) ClearCart(ctx context.Context) (SessionView, error) {
	var view SessionView
	err := c.do(ctx, resty.MethodDelete, "/api/cart", true, nil, &view)
	return view, err
}

// ApplyCoupon aplica um cupom e retorna a mensagem do desconto
func (c *Client) ApplyCoupon(ctx context.Context, code string) (SessionView, string, error) {
	var out struct {
		Session SessionView `json:"session"`
		Message string      `json:"message"`
	}
	err := c.do(ctx, resty.MethodPost, "/api/coupon", true, map[string]string{"code": code}, &out)
	return out.Session, out.Message, err
}

// RemoveCoupon remove o cupom aplicado
func (c *Client) RemoveCoupon(ctx context.Context) (SessionView, error) {
	var view SessionView
	err := c.do(ctx, resty.MethodDelete, "/api/coupon", true, nil, &view)
	return view, err
}

// SetCustomer grava os dados do cliente
func (c *Client) SetCustomer(ctx context.Context, info session.CustomerInfo) (SessionView, error) {
	var view SessionView
	err := c.do(ctx, resty.MethodPut, "/api/customer", true, info, &view)
	return view, err
}

// SetDelivery grava a forma de entrega
func (c *Client) SetDelivery(ctx context.Context, info session.DeliveryInfo) (SessionView, error) {
	var view SessionView
	err := c.do(ctx, resty.MethodPut, "/api/delivery", true, info, &view)
	return view, err
}

// SetPayment grava o meio de pagamento
func (c *Client) SetPayment(ctx context.Context, method session.PaymentMethod) (SessionView, error) {
	var view SessionView
	err := c.do(ctx, resty.MethodPut, "/api/payment", true, session.PaymentInfo{Method: method}, &view)
	return view, err
}

// Checkout finaliza o pedido
func (c *Client) Checkout(ctx context.Context) (OrderView, error) {
	var order OrderView
	err := c.do(ctx, resty.MethodPost, "/api/checkout", true, nil, &order)
	return order, err
}

// Orders lista o histórico da sessão
func (c *Client) Orders(ctx context.Context) ([]OrderView, error) {
	var out struct {
		Orders []OrderView `json:"orders"`
	}
	err := c.do(ctx, resty.MethodGet, "/api/orders", true, nil, &out)
	return out.Orders, err
}

// Order busca um pedido da sessão
func (c *Client) Order(ctx context.Context, id string) (OrderView, error) {
	var order OrderView
	err := c.do(ctx, resty.MethodGet, "/api/orders/"+id, true, nil, &order)
	return order, err
}

// SetOrderStatus avança o status de um pedido
func (c *Client) SetOrderStatus(ctx context.Context, id string, status session.OrderStatus) error {
	return c.do(ctx, resty.MethodPatch, "/api/orders/"+id+"/status", false, map[string]string{"status": string(status)}, nil)
}

// CloseSession descarta o container da sessão no serviço
func (c *Client) CloseSession(ctx context.Context) error {
	return c.do(ctx, resty.MethodDelete, "/api/sessions/current", true, nil, nil)
}
