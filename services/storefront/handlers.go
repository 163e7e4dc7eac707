package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pepmenu/storefront/catalog"
	"github.com/pepmenu/storefront/session"
)

const (
	sessionHeader = "X-Session-ID"
	sessionKey    = "session_id"
)

// StorefrontUseCaseInterface define a interface para o use case
type StorefrontUseCaseInterface interface {
	Catalog() *catalog.Catalog
	NewSession(ctx context.Context) (SessionView, error)
	CloseSession(ctx context.Context, sessionID string)
	GetSession(ctx context.Context, sessionID string) (SessionView, error)
	AddItem(ctx context.Context, sessionID string, req AddItemRequest) (SessionView, error)
	UpdateItem(ctx context.Context, sessionID, productID string, req UpdateItemRequest) (SessionView, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (SessionView, error)
	ClearCart(ctx context.Context, sessionID string) (SessionView, error)
	ApplyCouponCode(ctx context.Context, sessionID, code string) (SessionView, catalog.CouponRule, error)
	RemoveCoupon(ctx context.Context, sessionID string) (SessionView, error)
	SetCustomer(ctx context.Context, sessionID string, info session.CustomerInfo) (SessionView, error)
	SetDelivery(ctx context.Context, sessionID string, info session.DeliveryInfo) (SessionView, error)
	SetPayment(ctx context.Context, sessionID string, info session.PaymentInfo) (SessionView, error)
	Checkout(ctx context.Context, sessionID string) (session.Order, error)
	Orders(ctx context.Context, sessionID string) ([]session.Order, error)
	Order(ctx context.Context, sessionID, orderID string) (session.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status session.OrderStatus) (session.Order, error)
}

// ApplyCouponRequest representa a requisição de aplicação de cupom
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// UpdateStatusRequest representa a troca de status de um pedido
type UpdateStatusRequest struct {
	Status session.OrderStatus `json:"status" binding:"required"`
}

// OrderView é o pedido acompanhado dos textos exibidos ao cliente
type OrderView struct {
	session.Order
	StatusLabel string `json:"status_label"`
	Headline    string `json:"headline"`
	WhatsAppURL string `json:"whatsapp_url"`
}

// StorefrontHandler contém os handlers HTTP
type StorefrontHandler struct {
	useCase StorefrontUseCaseInterface
	tracer  trace.Tracer
	cfg     Config
}

// NewStorefrontHandler cria uma nova instância de StorefrontHandler
func NewStorefrontHandler(useCase StorefrontUseCaseInterface, tracer trace.Tracer, cfg Config) *StorefrontHandler {
	return &StorefrontHandler{
		useCase: useCase,
		tracer:  tracer,
		cfg:     cfg,
	}
}

// RegisterRoutes registra as rotas da loja no router
func (h *StorefrontHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	api.GET("/restaurant", h.Restaurant)
	api.GET("/menu", h.Menu)
	api.POST("/sessions", h.CreateSession)
	api.PATCH("/orders/:id/status", h.UpdateOrderStatus)

	s := api.Group("", requireSession())
	s.DELETE("/sessions/current", h.CloseSession)
	s.GET("/session", h.GetSession)
	s.POST("/cart/items", h.AddItem)
	s.PUT("/cart/items/:productId", h.UpdateItem)
	s.DELETE("/cart/items/:productId", h.RemoveItem)
	s.DELETE("/cart", h.ClearCart)
	s.POST("/coupon", h.ApplyCoupon)
	s.DELETE("/coupon", h.RemoveCoupon)
	s.PUT("/customer", h.SetCustomer)
	s.PUT("/delivery", h.SetDelivery)
	s.PUT("/payment", h.SetPayment)
	s.POST("/checkout", h.Checkout)
	s.GET("/orders", h.ListOrders)
	s.GET("/orders/:id", h.GetOrder)
}

// requireSession exige o cabeçalho X-Session-ID nas rotas da sessão
func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(sessionHeader)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + sessionHeader + " header"})
			return
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

// statusFor traduz os erros de negócio em status HTTP
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidSession),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrUnknownAddon),
		errors.Is(err, ErrInvalidCustomer),
		errors.Is(err, ErrInvalidDelivery),
		errors.Is(err, ErrInvalidPayment),
		errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidCoupon),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrMissingPayment),
		errors.Is(err, ErrIncompleteInfo):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *StorefrontHandler) fail(c *gin.Context, span trace.Span, err error) {
	status := statusFor(err)
	span.RecordError(err)
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, err.Error())
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *StorefrontHandler) start(c *gin.Context, name string) (context.Context, trace.Span) {
	ctx, span := h.tracer.Start(c.Request.Context(), name)
	if id := c.GetString(sessionKey); id != "" {
		span.SetAttributes(attribute.String("session_id", id))
	}
	return ctx, span
}

// orderView monta a resposta do pedido. message gera o texto do link do WhatsApp:
// a confirmação no checkout, a consulta de status no histórico.
func (h *StorefrontHandler) orderView(order session.Order, message func(session.Order) string) OrderView {
	return OrderView{
		Order:       order,
		StatusLabel: order.Status.Label(),
		Headline:    order.Status.Headline(),
		WhatsAppURL: whatsAppLink(h.cfg.WhatsAppPhone, message(order)),
	}
}

// HealthCheck verifica a saúde do serviço
func (h *StorefrontHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.ServiceName,
	})
}

// Restaurant retorna as informações da loja e a configuração pública
func (h *StorefrontHandler) Restaurant(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"title":          h.cfg.AppTitle,
		"restaurant":     h.useCase.Catalog().Restaurant,
		"delivery_fee":   h.cfg.DeliveryFee,
		"whatsapp_phone": h.cfg.WhatsAppPhone,
	})
}

// Menu lista categorias e produtos, com filtro opcional por termo e categoria
func (h *StorefrontHandler) Menu(c *gin.Context) {
	_, span := h.start(c, "menu.search")
	defer span.End()

	term, category := c.Query("q"), c.Query("category")
	span.SetAttributes(attribute.String("query", term), attribute.String("category", category))

	menu := h.useCase.Catalog()
	products := menu.Search(term, category)
	c.JSON(http.StatusOK, gin.H{
		"categories": menu.Categories(),
		"products":   products,
	})
}

// CreateSession inicia uma nova sessão de compra
func (h *StorefrontHandler) CreateSession(c *gin.Context) {
	ctx, span := h.start(c, "session.create")
	defer span.End()

	view, err := h.useCase.NewSession(ctx)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	span.SetAttributes(attribute.String("session_id", view.SessionID))
	c.JSON(http.StatusCreated, view)
}

// CloseSession descarta o container em memória da sessão
func (h *StorefrontHandler) CloseSession(c *gin.Context) {
	ctx, span := h.start(c, "session.close")
	defer span.End()

	h.useCase.CloseSession(ctx, c.GetString(sessionKey))
	c.Status(http.StatusNoContent)
}

// GetSession retorna o snapshot da sessão
func (h *StorefrontHandler) GetSession(c *gin.Context) {
	ctx, span := h.start(c, "session.get")
	defer span.End()

	view, err := h.useCase.GetSession(ctx, c.GetString(sessionKey))
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddItem adiciona um produto ao carrinho
func (h *StorefrontHandler) AddItem(c *gin.Context) {
	ctx, span := h.start(c, "cart.add_item")
	defer span.End()

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(
		attribute.String("product_id", req.ProductID),
		attribute.Int("quantity", req.Quantity),
	)

	view, err := h.useCase.AddItem(ctx, c.GetString(sessionKey), req)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateItem altera quantidade e observação de um produto do carrinho
func (h *StorefrontHandler) UpdateItem(c *gin.Context) {
	ctx, span := h.start(c, "cart.update_item")
	defer span.End()

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	productID := c.Param("productId")
	span.SetAttributes(
		attribute.String("product_id", productID),
		attribute.Int("quantity", req.Quantity),
	)

	view, err := h.useCase.UpdateItem(ctx, c.GetString(sessionKey), productID, req)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveItem remove um produto do carrinho
func (h *StorefrontHandler) RemoveItem(c *gin.Context) {
	ctx, span := h.start(c, "cart.remove_item")
	defer span.End()

	view, err := h.useCase.RemoveItem(ctx, c.GetString(sessionKey), c.Param("productId"))
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClearCart esvazia o carrinho
func (h *StorefrontHandler) ClearCart(c *gin.Context) {
	ctx, span := h.start(c, "cart.clear")
	defer span.End()

	view, err := h.useCase.ClearCart(ctx, c.GetString(sessionKey))
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ApplyCoupon aplica um código de desconto
func (h *StorefrontHandler) ApplyCoupon(c *gin.Context) {
	ctx, span := h.start(c, "coupon.apply")
	defer span.End()

	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.String("code", req.Code))

	view, rule, err := h.useCase.ApplyCouponCode(ctx, c.GetString(sessionKey), req.Code)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": view,
		"message": rule.Description,
	})
}

// RemoveCoupon remove o cupom aplicado
func (h *StorefrontHandler) RemoveCoupon(c *gin.Context) {
	ctx, span := h.start(c, "coupon.remove")
	defer span.End()

	view, err := h.useCase.RemoveCoupon(ctx, c.GetString(sessionKey))
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetCustomer grava nome e telefone do cliente
func (h *StorefrontHandler) SetCustomer(c *gin.Context) {
	ctx, span := h.start(c, "checkout.set_customer")
	defer span.End()

	var info session.CustomerInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.useCase.SetCustomer(ctx, c.GetString(sessionKey), info)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetDelivery grava a forma de entrega
func (h *StorefrontHandler) SetDelivery(c *gin.Context) {
	ctx, span := h.start(c, "checkout.set_delivery")
	defer span.End()

	var info session.DeliveryInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.String("delivery_type", string(info.Type)))

	view, err := h.useCase.SetDelivery(ctx, c.GetString(sessionKey), info)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetPayment grava o meio de pagamento
func (h *StorefrontHandler) SetPayment(c *gin.Context) {
	ctx, span := h.start(c, "checkout.set_payment")
	defer span.End()

	var info session.PaymentInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.String("payment_method", string(info.Method)))

	view, err := h.useCase.SetPayment(ctx, c.GetString(sessionKey), info)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Checkout finaliza o pedido da sessão
func (h *StorefrontHandler) Checkout(c *gin.Context) {
	ctx, span := h.start(c, "checkout")
	defer span.End()

	order, err := h.useCase.Checkout(ctx, c.GetString(sessionKey))
	if err != nil {
		h.fail(c, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.String("total", order.Total.StringFixed(2)),
	)
	c.JSON(http.StatusCreated, h.orderView(order, orderMessage))
}

// ListOrders retorna o histórico de pedidos da sessão
func (h *StorefrontHandler) ListOrders(c *gin.Context) {
	ctx, span := h.start(c, "orders.list")
	defer span.End()

	orders, err := h.useCase.Orders(ctx, c.GetString(sessionKey))
	if err != nil {
		h.fail(c, span, err)
		return
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, h.orderView(o, statusEnquiryMessage))
	}
	c.JSON(http.StatusOK, gin.H{"orders": views})
}

// GetOrder retorna o detalhe de um pedido da sessão
func (h *StorefrontHandler) GetOrder(c *gin.Context) {
	ctx, span := h.start(c, "orders.get")
	defer span.End()

	orderID := c.Param("id")
	span.SetAttributes(attribute.String("order_id", orderID))

	order, err := h.useCase.Order(ctx, c.GetString(sessionKey), orderID)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, h.orderView(order, statusEnquiryMessage))
}

// UpdateOrderStatus avança o status de um pedido (uso da gestão da loja)
func (h *StorefrontHandler) UpdateOrderStatus(c *gin.Context) {
	ctx, span := h.start(c, "orders.update_status")
	defer span.End()

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	orderID := c.Param("id")
	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.String("status", string(req.Status)),
	)

	order, err := h.useCase.UpdateOrderStatus(ctx, orderID, req.Status)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                order.ID,
		"status":            order.Status,
		"status_label":      order.Status.Label(),
		"status_updated_at": order.StatusUpdatedAt,
	})
}
