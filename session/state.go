package session

import "fmt"

// State é o snapshot da sessão de compra. Cada operação produz um novo State;
// um snapshot entregue a quem chamou nunca é alterado depois.
type State struct {
	Cart          []CartItem    `json:"cart"`
	Orders        []Order       `json:"orders"`
	Customer      *CustomerInfo `json:"customer,omitempty"`
	Delivery      *DeliveryInfo `json:"delivery,omitempty"`
	Payment       *PaymentInfo  `json:"payment,omitempty"`
	AppliedCoupon *Coupon       `json:"applied_coupon,omitempty"`
}

// Clone retorna uma cópia profunda do snapshot
func (s State) Clone() State {
	c := State{
		Cart:   cloneItems(s.Cart),
		Orders: make([]Order, len(s.Orders)),
	}
	if c.Cart == nil {
		c.Cart = []CartItem{}
	}
	for i, o := range s.Orders {
		c.Orders[i] = o.clone()
	}
	if s.Customer != nil {
		v := *s.Customer
		c.Customer = &v
	}
	if s.Delivery != nil {
		v := *s.Delivery
		c.Delivery = &v
	}
	if s.Payment != nil {
		v := *s.Payment
		c.Payment = &v
	}
	if s.AppliedCoupon != nil {
		v := *s.AppliedCoupon
		c.AppliedCoupon = &v
	}
	return c
}

// FindOrder busca um pedido do histórico pelo código
func (s State) FindOrder(id string) (Order, bool) {
	for _, o := range s.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}

// Reduce calcula o próximo estado a partir do estado atual e de uma ação.
// O estado recebido não é modificado.
func Reduce(state State, a Action) State {
	next := state
	switch a := a.(type) {
	case AddToCart:
		if a.Item.Quantity < 1 {
			return state
		}
		for i, item := range state.Cart {
			if item.ID == a.Item.ID && item.Observation == a.Item.Observation {
				next.Cart = cloneItems(state.Cart)
				next.Cart[i].Quantity += a.Item.Quantity
				return next
			}
		}
		next.Cart = append(cloneItems(state.Cart), a.Item.clone())

	case RemoveFromCart:
		next.Cart = removeProduct(state.Cart, a.ProductID)

	case UpdateCartQuantity:
		if a.Quantity < 1 {
			next.Cart = removeProduct(state.Cart, a.ProductID)
			return next
		}
		next.Cart = mapProduct(state.Cart, a.ProductID, func(item *CartItem) {
			item.Quantity = a.Quantity
		})

	case UpdateCartItem:
		if a.Quantity < 1 {
			next.Cart = removeProduct(state.Cart, a.ProductID)
			return next
		}
		next.Cart = mapProduct(state.Cart, a.ProductID, func(item *CartItem) {
			item.Quantity = a.Quantity
			item.Observation = a.Observation
		})

	case ClearCart:
		next = clearSession(state)

	case SetCustomer:
		info := a.Info
		next.Customer = &info

	case SetDelivery:
		info := a.Info
		next.Delivery = &info

	case SetPayment:
		info := a.Info
		next.Payment = &info

	case ApplyCoupon:
		coupon := a.Coupon
		next.AppliedCoupon = &coupon

	case RemoveCoupon:
		next.AppliedCoupon = nil

	case AddOrder:
		next = clearSession(state)
		orders := make([]Order, 0, len(state.Orders)+1)
		orders = append(orders, a.Order.clone())
		next.Orders = append(orders, state.Orders...)

	case UpdateOrderStatus:
		for i, o := range state.Orders {
			if o.ID != a.OrderID {
				continue
			}
			next.Orders = append([]Order(nil), state.Orders...)
			updated := o.clone()
			at := a.At
			updated.Status = a.Status
			updated.StatusUpdatedAt = &at
			next.Orders[i] = updated
			return next
		}

	default:
		panic(fmt.Sprintf("session: unhandled action %T", a))
	}
	return next
}

// clearSession esvazia o carrinho e descarta pagamento e cupom; cliente e entrega permanecem
func clearSession(state State) State {
	next := state
	next.Cart = []CartItem{}
	next.Payment = nil
	next.AppliedCoupon = nil
	return next
}

func removeProduct(cart []CartItem, productID string) []CartItem {
	out := make([]CartItem, 0, len(cart))
	for _, item := range cart {
		if item.ID != productID {
			out = append(out, item)
		}
	}
	return out
}

func mapProduct(cart []CartItem, productID string, fn func(*CartItem)) []CartItem {
	out := cloneItems(cart)
	for i := range out {
		if out[i].ID == productID {
			fn(&out[i])
		}
	}
	return out
}
