package session

// OrderStatus representa os possíveis status de um pedido
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusOnRoute   OrderStatus = "on_route"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
)

// Valid informa se o status é conhecido
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusOnRoute, OrderStatusReady, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// Label retorna o texto exibido para o cliente no acompanhamento do pedido
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Em confirmação"
	case OrderStatusConfirmed, OrderStatusPreparing:
		return "Em preparação"
	case OrderStatusOnRoute:
		return "A caminho"
	case OrderStatusReady:
		return "Pronto para retirar"
	case OrderStatusDelivered:
		return "Entregue"
	case OrderStatusCanceled:
		return "Cancelado"
	default:
		return string(s)
	}
}

// Headline retorna o título da tela de confirmação para o status
func (s OrderStatus) Headline() string {
	switch s {
	case OrderStatusPending:
		return "Pedido recebido"
	case OrderStatusConfirmed, OrderStatusPreparing:
		return "Pedido confirmado"
	case OrderStatusOnRoute:
		return "Pedido a caminho"
	case OrderStatusReady:
		return "Pedido pronto"
	case OrderStatusDelivered:
		return "Pedido entregue"
	case OrderStatusCanceled:
		return "Pedido cancelado"
	default:
		return "Pedido"
	}
}
