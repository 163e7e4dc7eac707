package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultStorageTimeout = 2 * time.Second

// ErrClosed é retornado por Update depois de Close
var ErrClosed = errors.New("session closed")

// Container é a fonte única de verdade da sessão de compra.
// É criado no início da sessão (NewContainer) e encerrado com Close.
// Todas as transições passam por Dispatch ou Update, que serializam os escritores com um mutex.
type Container struct {
	mu             sync.Mutex
	state          State
	storage        Storage
	logger         *zap.Logger
	storageTimeout time.Duration
	subscribers    map[int]func(State)
	nextSub        int
	closed         bool

	// seq numera as transições; notifyMu/notifyCond entregam aos assinantes nessa ordem
	seq        uint64
	notified   uint64
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
}

// Option configura um Container
type Option func(*Container)

// WithLogger define o logger usado para registrar falhas de persistência
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOrders define o histórico inicial de pedidos (mais recente primeiro)
func WithOrders(orders []Order) Option {
	return func(c *Container) {
		c.state.Orders = make([]Order, len(orders))
		for i, o := range orders {
			c.state.Orders[i] = o.clone()
		}
	}
}

// WithStorageTimeout limita o tempo de cada leitura/escrita no armazenamento
func WithStorageTimeout(d time.Duration) Option {
	return func(c *Container) {
		if d > 0 {
			c.storageTimeout = d
		}
	}
}

// NewContainer cria o container e restaura cliente e entrega do armazenamento.
// Entradas ausentes ou corrompidas são ignoradas. Um storage nil usa memória.
func NewContainer(storage Storage, opts ...Option) *Container {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	c := &Container{
		state:          State{Cart: []CartItem{}, Orders: []Order{}},
		storage:        storage,
		logger:         zap.NewNop(),
		storageTimeout: defaultStorageTimeout,
		subscribers:    make(map[int]func(State)),
	}
	c.notifyCond = sync.NewCond(&c.notifyMu)
	for _, opt := range opts {
		opt(c)
	}
	c.restore()
	return c
}

func (c *Container) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), c.storageTimeout)
	defer cancel()

	customer, err := loadJSON[CustomerInfo](ctx, c.storage, StorageKeyCustomer)
	if err != nil {
		c.logger.Warn("ignoring persisted customer", zap.Error(err))
	}
	delivery, err := loadJSON[DeliveryInfo](ctx, c.storage, StorageKeyDelivery)
	if err != nil {
		c.logger.Warn("ignoring persisted delivery", zap.Error(err))
	}
	c.state.Customer = customer
	c.state.Delivery = delivery
}

// Dispatch aplica a ação, persiste os campos duráveis que mudaram e notifica os assinantes.
// Retorna uma cópia do novo estado. Depois de Close o estado não muda mais.
func (c *Container) Dispatch(a Action) State {
	state, _ := c.Update(func(State) (Action, error) { return a, nil })
	return state
}

// Update executa fn sobre o estado atual e aplica a ação retornada como um único passo:
// nenhuma outra transição da sessão acontece entre a leitura e a aplicação.
// Se fn retornar erro (ou ação nil) o estado não muda. Depois de Close fn não é
// chamada e o erro é ErrClosed.
func (c *Container) Update(fn func(State) (Action, error)) (State, error) {
	c.mu.Lock()
	if c.closed {
		snapshot := c.state.Clone()
		c.mu.Unlock()
		return snapshot, ErrClosed
	}
	a, err := fn(c.state.Clone())
	if err != nil || a == nil {
		snapshot := c.state.Clone()
		c.mu.Unlock()
		return snapshot, err
	}
	prev := c.state
	next := Reduce(prev, a)
	c.state = next
	c.commit(prev, next)

	seq := c.seq
	c.seq++
	subs := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	c.notify(seq, subs, next)
	return next.Clone(), nil
}

// notify entrega o estado aos assinantes respeitando a ordem das transições
func (c *Container) notify(seq uint64, subs []func(State), state State) {
	c.notifyMu.Lock()
	for c.notified != seq {
		c.notifyCond.Wait()
	}
	c.notifyMu.Unlock()

	for _, fn := range subs {
		fn(state.Clone())
	}

	c.notifyMu.Lock()
	c.notified++
	c.notifyCond.Broadcast()
	c.notifyMu.Unlock()
}

// commit grava cliente e entrega quando foram redefinidos. Roda com c.mu adquirido,
// então o armazenamento recebe as escritas na mesma ordem das transições.
// Falhas são apenas registradas.
func (c *Container) commit(prev, next State) {
	if next.Customer == prev.Customer && next.Delivery == prev.Delivery {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.storageTimeout)
	defer cancel()

	if next.Customer != nil && next.Customer != prev.Customer {
		if err := saveJSON(ctx, c.storage, StorageKeyCustomer, next.Customer); err != nil {
			c.logger.Warn("failed to persist customer", zap.Error(err))
		}
	}
	if next.Delivery != nil && next.Delivery != prev.Delivery {
		if err := saveJSON(ctx, c.storage, StorageKeyDelivery, next.Delivery); err != nil {
			c.logger.Warn("failed to persist delivery", zap.Error(err))
		}
	}
}

// Subscribe registra fn para receber o novo estado após cada ação, na ordem das transições.
// fn não deve chamar Dispatch de forma síncrona. A função retornada cancela a assinatura.
func (c *Container) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Close encerra a sessão e descarta os assinantes
func (c *Container) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.subscribers = make(map[int]func(State))
}

// Snapshot retorna uma cópia do estado atual
func (c *Container) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Container) AddToCart(item CartItem) State {
	return c.Dispatch(AddToCart{Item: item})
}

func (c *Container) RemoveFromCart(productID string) State {
	return c.Dispatch(RemoveFromCart{ProductID: productID})
}

func (c *Container) UpdateCartQuantity(productID string, quantity int) State {
	return c.Dispatch(UpdateCartQuantity{ProductID: productID, Quantity: quantity})
}

func (c *Container) UpdateCartItem(productID string, quantity int, observation string) State {
	return c.Dispatch(UpdateCartItem{ProductID: productID, Quantity: quantity, Observation: observation})
}

func (c *Container) ClearCart() State {
	return c.Dispatch(ClearCart{})
}

func (c *Container) SetCustomer(info CustomerInfo) State {
	return c.Dispatch(SetCustomer{Info: info})
}

func (c *Container) SetDelivery(info DeliveryInfo) State {
	return c.Dispatch(SetDelivery{Info: info})
}

func (c *Container) SetPayment(info PaymentInfo) State {
	return c.Dispatch(SetPayment{Info: info})
}

func (c *Container) ApplyCoupon(coupon Coupon) State {
	return c.Dispatch(ApplyCoupon{Coupon: coupon})
}

func (c *Container) RemoveCoupon() State {
	return c.Dispatch(RemoveCoupon{})
}

func (c *Container) AddOrder(order Order) State {
	return c.Dispatch(AddOrder{Order: order})
}

func (c *Container) UpdateOrderStatus(orderID string, status OrderStatus, at time.Time) State {
	return c.Dispatch(UpdateOrderStatus{OrderID: orderID, Status: status, At: at})
}

// CartItemCount soma as quantidades do carrinho atual
func (c *Container) CartItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CartItemCount()
}

// CartTotals calcula os totais do carrinho atual
func (c *Container) CartTotals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CartTotals()
}

// FindOrder busca um pedido do histórico; ok=false quando não existe
func (c *Container) FindOrder(id string) (Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.state.FindOrder(id)
	if !ok {
		return Order{}, false
	}
	return o.clone(), true
}
