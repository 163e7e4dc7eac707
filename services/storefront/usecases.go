package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/pepmenu/storefront/catalog"
	"github.com/pepmenu/storefront/session"
)

var (
	ErrInvalidSession  = errors.New("invalid session id")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrUnknownAddon    = errors.New("unknown addon")
	ErrInvalidCustomer = errors.New("name and phone are required")
	ErrInvalidDelivery = errors.New("address and postal code are required for delivery")
	ErrInvalidPayment  = errors.New("unknown payment method")
	ErrInvalidStatus   = errors.New("unknown order status")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrMissingPayment  = errors.New("payment method not selected")
	ErrIncompleteInfo  = errors.New("customer and delivery info are required")
)

// AddItemRequest representa a requisição para adicionar um produto ao carrinho
type AddItemRequest struct {
	ProductID   string   `json:"product_id" binding:"required"`
	Quantity    int      `json:"quantity" binding:"required,gt=0"`
	Observation string   `json:"observation"`
	Addons      []string `json:"addons"`
}

// UpdateItemRequest representa a edição de uma linha do carrinho.
// Sem observação, apenas a quantidade muda.
type UpdateItemRequest struct {
	Quantity    int     `json:"quantity"`
	Observation *string `json:"observation"`
}

// SessionView é o snapshot da sessão acompanhado dos valores derivados
type SessionView struct {
	SessionID   string          `json:"session_id"`
	State       session.State   `json:"state"`
	Totals      session.Totals  `json:"totals"`
	ItemCount   int             `json:"item_count"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// StorefrontUseCase contém a lógica de negócio da loja: uma sessão de compra por cliente
type StorefrontUseCase struct {
	cfg      Config
	catalog  *catalog.Catalog
	coupons  catalog.CouponTable
	storage  StorageProvider
	archive  OrderArchive
	logger   *zap.Logger
	metrics  *storefrontMetrics
	now      func() time.Time
	prefix   string

	mu        sync.Mutex
	sessions  map[string]*session.Container
	lastSeen  map[string]time.Time
	lastSweep time.Time

	// checkoutMu serializa a geração de códigos de pedido
	checkoutMu sync.Mutex
}

// NewStorefrontUseCase cria uma nova instância de StorefrontUseCase
func NewStorefrontUseCase(
	cfg Config,
	menu *catalog.Catalog,
	storage StorageProvider,
	archive OrderArchive,
	logger *zap.Logger,
	metrics *storefrontMetrics,
) *StorefrontUseCase {
	return &StorefrontUseCase{
		cfg:      cfg,
		catalog:  menu,
		coupons:  catalog.DefaultCoupons(),
		storage:  storage,
		archive:  archive,
		logger:   logger.Named("usecase"),
		metrics:  metrics,
		now:      time.Now,
		prefix:   session.OrderCodePrefix(cfg.RestaurantName),
		sessions: make(map[string]*session.Container),
		lastSeen: make(map[string]time.Time),
	}
}

// Catalog retorna o cardápio da loja
func (uc *StorefrontUseCase) Catalog() *catalog.Catalog {
	return uc.catalog
}

// NewSession gera um identificador de sessão e cria seu container
func (uc *StorefrontUseCase) NewSession(ctx context.Context) (SessionView, error) {
	id := uuid.New().String()

	uc.mu.Lock()
	uc.evictIdle(ctx)
	c := uc.open(ctx, id, nil)
	uc.mu.Unlock()

	return uc.view(id, c.Snapshot()), nil
}

// CloseSession encerra o container da sessão. Os dados persistidos permanecem.
func (uc *StorefrontUseCase) CloseSession(ctx context.Context, sessionID string) {
	uc.mu.Lock()
	c, ok := uc.sessions[sessionID]
	delete(uc.sessions, sessionID)
	delete(uc.lastSeen, sessionID)
	uc.mu.Unlock()

	if ok {
		c.Close()
		uc.metrics.activeSessions.Add(ctx, -1)
		uc.logger.Info("session closed", zap.String("session_id", sessionID))
	}
}

// Close encerra todas as sessões ativas
func (uc *StorefrontUseCase) Close() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for id, c := range uc.sessions {
		c.Close()
		delete(uc.sessions, id)
		delete(uc.lastSeen, id)
	}
}

// container retorna o container da sessão. Uma sessão que não está em memória só é
// reaberta (restaurando dados persistidos e histórico arquivado) se foi emitida por
// NewSession, tem dados persistidos ou tem pedidos arquivados.
func (uc *StorefrontUseCase) container(ctx context.Context, sessionID string) (*session.Container, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrInvalidSession
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.evictIdle(ctx)
	if c, ok := uc.sessions[sessionID]; ok {
		uc.lastSeen[sessionID] = uc.now()
		return c, nil
	}

	history, err := uc.archive.ListSessionOrders(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	if len(history) == 0 {
		known, err := uc.storage.HasSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up session: %w", err)
		}
		if !known {
			return nil, ErrSessionNotFound
		}
	}
	return uc.open(ctx, sessionID, history), nil
}

// open cria e registra o container. Deve ser chamado com uc.mu adquirido.
func (uc *StorefrontUseCase) open(ctx context.Context, sessionID string, history []session.Order) *session.Container {
	if len(history) == 0 && uc.cfg.SeedDemoOrders {
		history = uc.catalog.DemoOrders()
	}
	c := session.NewContainer(
		uc.storage.ForSession(sessionID),
		session.WithOrders(history),
		session.WithLogger(uc.logger.With(zap.String("session_id", sessionID))),
	)
	uc.sessions[sessionID] = c
	uc.lastSeen[sessionID] = uc.now()
	uc.metrics.activeSessions.Add(ctx, 1)
	uc.logger.Info("session started", zap.String("session_id", sessionID), zap.Int("orders", len(history)))
	return c
}

// evictIdle encerra os containers sem uso há mais de SessionIdleTimeout.
// A varredura roda no máximo uma vez a cada meio timeout. Deve ser chamado com uc.mu adquirido.
func (uc *StorefrontUseCase) evictIdle(ctx context.Context) {
	timeout := uc.cfg.SessionIdleTimeout
	if timeout <= 0 {
		return
	}
	now := uc.now()
	if now.Sub(uc.lastSweep) < timeout/2 {
		return
	}
	uc.lastSweep = now

	for id, seen := range uc.lastSeen {
		if now.Sub(seen) < timeout {
			continue
		}
		uc.sessions[id].Close()
		delete(uc.sessions, id)
		delete(uc.lastSeen, id)
		uc.metrics.activeSessions.Add(ctx, -1)
		uc.logger.Info("idle session evicted", zap.String("session_id", id))
	}
}

func (uc *StorefrontUseCase) view(sessionID string, state session.State) SessionView {
	totals := state.CartTotals()
	fee := uc.deliveryFee(state.Delivery)
	return SessionView{
		SessionID:   sessionID,
		State:       state,
		Totals:      totals,
		ItemCount:   state.CartItemCount(),
		DeliveryFee: fee,
		GrandTotal:  totals.Total.Add(fee),
	}
}

// deliveryFee aplica a taxa fixa apenas para entregas em domicílio
func (uc *StorefrontUseCase) deliveryFee(delivery *session.DeliveryInfo) decimal.Decimal {
	if delivery == nil || delivery.Type != session.DeliveryHome {
		return decimal.Zero
	}
	return uc.cfg.DeliveryFee
}

// GetSession retorna o snapshot atual da sessão
func (uc *StorefrontUseCase) GetSession(ctx context.Context, sessionID string) (SessionView, error) {
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return uc.view(sessionID, c.Snapshot()), nil
}

// AddItem adiciona um produto do cardápio ao carrinho, capturando preço e adicionais
func (uc *StorefrontUseCase) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (SessionView, error) {
	if req.Quantity < 1 {
		return SessionView{}, ErrInvalidQuantity
	}
	product, err := uc.catalog.Product(req.ProductID)
	if err != nil {
		return SessionView{}, err
	}
	addons, err := selectAddons(product, req.Addons)
	if err != nil {
		return SessionView{}, err
	}
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}

	state := c.AddToCart(session.CartItem{
		Product:        product,
		Quantity:       req.Quantity,
		Observation:    strings.TrimSpace(req.Observation),
		SelectedAddons: addons,
	})
	uc.metrics.itemsAdded.Add(ctx, int64(req.Quantity), metric.WithAttributes(attribute.String("product_id", product.ID)))
	return uc.view(sessionID, state), nil
}

func selectAddons(product session.Product, names []string) ([]session.Addon, error) {
	if len(names) == 0 {
		return nil, nil
	}
	selected := make([]session.Addon, 0, len(names))
	for _, name := range names {
		found := false
		for _, option := range product.AddonOptions {
			if strings.EqualFold(option.Name, strings.TrimSpace(name)) {
				selected = append(selected, option)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q for product %s", ErrUnknownAddon, name, product.ID)
		}
	}
	return selected, nil
}

// UpdateItem altera a quantidade (e, se informada, a observação) das linhas do produto.
// Quantidade menor que 1 remove o produto do carrinho.
func (uc *StorefrontUseCase) UpdateItem(ctx context.Context, sessionID, productID string, req UpdateItemRequest) (SessionView, error) {
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	var state session.State
	if req.Observation != nil {
		state = c.UpdateCartItem(productID, req.Quantity, strings.TrimSpace(*req.Observation))
	} else {
		state = c.UpdateCartQuantity(productID, req.Quantity)
	}
	return uc.view(sessionID, state), nil
}

// RemoveItem remove todas as linhas do produto
func (uc *StorefrontUseCase) RemoveItem(ctx context.Context, sessionID, productID string) (SessionView, error) {
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return uc.view(sessionID, c.RemoveFromCart(productID)), nil
}

// ClearCart esvazia o carrinho
func (uc *StorefrontUseCase) ClearCart(ctx context.Context, sessionID string) (SessionView, error) {
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return uc.view(sessionID, c.ClearCart()), nil
}

// ApplyCouponCode valida o código na tabela de cupons e aplica o desconto.
// Códigos desconhecidos não alteram a sessão.
func (uc *StorefrontUseCase) ApplyCouponCode(ctx context.Context, sessionID, code string) (SessionView, catalog.CouponRule, error) {
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return SessionView{}, catalog.CouponRule{}, err
	}
	coupon, rule, err := uc.coupons.Resolve(code)
	if err != nil {
		uc.metrics.couponsRejected.Add(ctx, 1)
		uc.logger.Info("coupon rejected", zap.String("session_id", sessionID), zap.String("code", code))
		return SessionView{}, catalog.CouponRule{}, err
	}
	state := c.ApplyCoupon(coupon)
	uc.metrics.couponsApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("code", coupon.Code)))
	return uc.view(sessionID, state), rule, nil
}

// RemoveCoupon remove o cupom aplicado
func (uc *StorefrontUseCase) RemoveCoupon(ctx context.Context, sessionID string) (SessionView, error) {
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return uc.view(sessionID, c.RemoveCoupon()), nil
}

// SetCustomer grava os dados do cliente
func (uc *StorefrontUseCase) SetCustomer(ctx context.Context, sessionID string, info session.CustomerInfo) (SessionView, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Phone = strings.TrimSpace(info.Phone)
	if info.Name == "" || info.Phone == "" {
		return SessionView{}, ErrInvalidCustomer
	}
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return uc.view(sessionID, c.SetCustomer(info)), nil
}

// SetDelivery grava a forma de entrega. Entrega em domicílio exige endereço e CEP.
func (uc *StorefrontUseCase) SetDelivery(ctx context.Context, sessionID string, info session.DeliveryInfo) (SessionView, error) {
	switch info.Type {
	case session.DeliveryHome:
		info.Address = strings.TrimSpace(info.Address)
		info.PostalCode = strings.TrimSpace(info.PostalCode)
		if info.Address == "" || info.PostalCode == "" {
			return SessionView{}, ErrInvalidDelivery
		}
	case session.DeliveryPickup:
		info.Address = ""
		info.PostalCode = ""
	default:
		return SessionView{}, fmt.Errorf("%w: unknown type %q", ErrInvalidDelivery, info.Type)
	}
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return uc.view(sessionID, c.SetDelivery(info)), nil
}

// SetPayment grava o meio de pagamento escolhido
func (uc *StorefrontUseCase) SetPayment(ctx context.Context, sessionID string, info session.PaymentInfo) (SessionView, error) {
	if !info.Method.Valid() {
		return SessionView{}, ErrInvalidPayment
	}
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return uc.view(sessionID, c.SetPayment(info)), nil
}

// Checkout finaliza o pedido: gera o código, arquiva o pedido e inicia uma nova
// sessão de compra mantendo cliente e entrega. Validação, arquivamento e registro do
// pedido acontecem numa única transição do container.
func (uc *StorefrontUseCase) Checkout(ctx context.Context, sessionID string) (session.Order, error) {
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return session.Order{}, err
	}

	uc.checkoutMu.Lock()
	defer uc.checkoutMu.Unlock()

	var order session.Order
	_, err = c.Update(func(state session.State) (session.Action, error) {
		switch {
		case len(state.Cart) == 0:
			return nil, ErrEmptyCart
		case state.Payment == nil:
			return nil, ErrMissingPayment
		case state.Customer == nil || state.Delivery == nil:
			return nil, ErrIncompleteInfo
		}

		archived, err := uc.archive.ListOrderIDs(ctx, uc.prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list order codes: %w", err)
		}
		code := session.NextOrderCode(uc.prefix, append(archived, state.OrderIDs()...))

		order = session.Order{
			ID:       code,
			Date:     uc.now().UTC(),
			Total:    state.CartTotals().Total.Add(uc.deliveryFee(state.Delivery)),
			Status:   session.OrderStatusPending,
			Items:    state.Cart,
			Customer: *state.Customer,
			Delivery: *state.Delivery,
			Payment:  *state.Payment,
		}
		if err := uc.archive.SaveOrder(ctx, sessionID, order); err != nil {
			uc.logger.Error("failed to archive order", zap.String("order_id", code), zap.Error(err))
			return nil, fmt.Errorf("failed to archive order: %w", err)
		}
		return session.AddOrder{Order: order}, nil
	})
	if errors.Is(err, session.ErrClosed) {
		return session.Order{}, ErrSessionNotFound
	}
	if err != nil {
		return session.Order{}, err
	}

	uc.metrics.ordersPlaced.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", string(order.Payment.Method)),
		attribute.String("delivery_type", string(order.Delivery.Type)),
	))
	uc.logger.Info("order placed",
		zap.String("session_id", sessionID),
		zap.String("order_id", order.ID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

// Orders retorna o histórico da sessão, do mais recente para o mais antigo
func (uc *StorefrontUseCase) Orders(ctx context.Context, sessionID string) ([]session.Order, error) {
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.Snapshot().Orders, nil
}

// Order busca um pedido do histórico da sessão
func (uc *StorefrontUseCase) Order(ctx context.Context, sessionID, orderID string) (session.Order, error) {
	c, err := uc.container(ctx, sessionID)
	if err != nil {
		return session.Order{}, err
	}
	order, ok := c.FindOrder(orderID)
	if !ok {
		return session.Order{}, ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus é usado pela gestão de pedidos para avançar o status.
// Só pedidos arquivados podem ser atualizados. Atualiza o arquivo e, se a sessão dona
// estiver ativa, o seu histórico.
func (uc *StorefrontUseCase) UpdateOrderStatus(ctx context.Context, orderID string, status session.OrderStatus) (session.Order, error) {
	if !status.Valid() {
		return session.Order{}, ErrInvalidStatus
	}
	at := uc.now().UTC()

	owner, err := uc.archive.UpdateOrderStatus(ctx, orderID, status, at)
	if err != nil {
		return session.Order{}, err
	}

	uc.mu.Lock()
	c, live := uc.sessions[owner]
	uc.mu.Unlock()

	updated := session.Order{ID: orderID, Status: status, StatusUpdatedAt: &at}
	if live {
		c.UpdateOrderStatus(orderID, status, at)
		if o, ok := c.FindOrder(orderID); ok {
			updated = o
		}
	}

	uc.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("session_id", owner),
		zap.String("status", string(status)),
	)
	return updated, nil
}
