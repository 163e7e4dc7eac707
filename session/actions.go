package session

import "time"

// Action é uma intenção despachada para o container.
// O conjunto de variantes é fechado: apenas os tipos deste arquivo a implementam.
type Action interface {
	action()
}

// AddToCart adiciona um item, somando a quantidade se (produto, observação) já existir
type AddToCart struct {
	Item CartItem
}

// RemoveFromCart remove todas as linhas do produto
type RemoveFromCart struct {
	ProductID string
}

// UpdateCartQuantity altera a quantidade das linhas do produto
type UpdateCartQuantity struct {
	ProductID string
	Quantity  int
}

// UpdateCartItem altera quantidade e observação das linhas do produto (fluxo "editar item")
type UpdateCartItem struct {
	ProductID   string
	Quantity    int
	Observation string
}

// ClearCart esvazia o carrinho e descarta pagamento e cupom
type ClearCart struct{}

// SetCustomer substitui os dados do cliente
type SetCustomer struct {
	Info CustomerInfo
}

// SetDelivery substitui os dados de entrega
type SetDelivery struct {
	Info DeliveryInfo
}

// SetPayment substitui o rascunho de pagamento
type SetPayment struct {
	Info PaymentInfo
}

// ApplyCoupon substitui o cupom aplicado
type ApplyCoupon struct {
	Coupon Coupon
}

// RemoveCoupon remove o cupom aplicado
type RemoveCoupon struct{}

// AddOrder registra um pedido finalizado e inicia uma nova sessão de compra
type AddOrder struct {
	Order Order
}

// UpdateOrderStatus altera o status de um pedido do histórico
type UpdateOrderStatus struct {
	OrderID string
	Status  OrderStatus
	At      time.Time
}

func (AddToCart) action()          {}
func (RemoveFromCart) action()     {}
func (UpdateCartQuantity) action() {}
func (UpdateCartItem) action()     {}
func (ClearCart) action()          {}
func (SetCustomer) action()        {}
func (SetDelivery) action()        {}
func (SetPayment) action()         {}
func (ApplyCoupon) action()        {}
func (RemoveCoupon) action()       {}
func (AddOrder) action()           {}
func (UpdateOrderStatus) action()  {}
