package session

import (
	"time"

	"github.com/shopspring/decimal"
)

// Addon representa um adicional com nome e preço capturados no momento da escolha
type Addon struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Product representa um item do cardápio. Nunca é alterado depois de carregado.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Category     string          `json:"category"`
	AddonOptions []Addon         `json:"addons_options,omitempty"`
}

// CartItem é uma linha do carrinho: o produto mais quantidade, observação e adicionais
type CartItem struct {
	Product
	Quantity       int     `json:"quantity"`
	Observation    string  `json:"observation,omitempty"`
	SelectedAddons []Addon `json:"selected_addons,omitempty"`
}

// UnitPrice retorna o preço unitário do item incluindo os adicionais selecionados
func (i CartItem) UnitPrice() decimal.Decimal {
	price := i.Price
	for _, addon := range i.SelectedAddons {
		price = price.Add(addon.Price)
	}
	return price
}

// LineTotal retorna o valor da linha (preço unitário x quantidade)
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i CartItem) clone() CartItem {
	c := i
	if i.SelectedAddons != nil {
		c.SelectedAddons = append([]Addon(nil), i.SelectedAddons...)
	}
	if i.AddonOptions != nil {
		c.AddonOptions = append([]Addon(nil), i.AddonOptions...)
	}
	return c
}

// CouponType representa o tipo de desconto de um cupom
type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

// Coupon representa um cupom de desconto aplicado ao carrinho
type Coupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Type     CouponType      `json:"type"`
	IsValid  bool            `json:"is_valid"`
}

// CustomerInfo contém os dados do cliente usados no checkout
type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// DeliveryType representa a forma de entrega do pedido
type DeliveryType string

const (
	DeliveryHome   DeliveryType = "delivery"
	DeliveryPickup DeliveryType = "pickup"
)

// DeliveryInfo contém a forma de entrega e, para entregas, o endereço
type DeliveryInfo struct {
	Type       DeliveryType `json:"type"`
	Address    string       `json:"address,omitempty"`
	PostalCode string       `json:"cep,omitempty"`
}

// PaymentMethod representa os meios de pagamento aceitos
type PaymentMethod string

const (
	PaymentPix         PaymentMethod = "pix"
	PaymentCredit      PaymentMethod = "credit"
	PaymentDebit       PaymentMethod = "debit"
	PaymentMealVoucher PaymentMethod = "meal_voucher"
)

// Valid informa se o meio de pagamento é conhecido
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentPix, PaymentCredit, PaymentDebit, PaymentMealVoucher:
		return true
	}
	return false
}

// PaymentInfo é o rascunho de pagamento. Não é persistido entre sessões.
type PaymentInfo struct {
	Method PaymentMethod `json:"method"`
}

// Order é o registro imutável de um checkout concluído.
// Apenas Status e StatusUpdatedAt mudam depois da criação.
type Order struct {
	ID              string          `json:"id"`
	Date            time.Time       `json:"date"`
	StatusUpdatedAt *time.Time      `json:"status_updated_at,omitempty"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	Items           []CartItem      `json:"items"`
	Customer        CustomerInfo    `json:"customer"`
	Delivery        DeliveryInfo    `json:"delivery"`
	Payment         PaymentInfo     `json:"payment"`
}

func (o Order) clone() Order {
	c := o
	c.Items = cloneItems(o.Items)
	if o.StatusUpdatedAt != nil {
		at := *o.StatusUpdatedAt
		c.StatusUpdatedAt = &at
	}
	return c
}

func cloneItems(items []CartItem) []CartItem {
	if items == nil {
		return nil
	}
	out := make([]CartItem, len(items))
	for i, item := range items {
		out[i] = item.clone()
	}
	return out
}
