package session

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals agrupa subtotal, desconto e total do carrinho
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// CartItemCount soma as quantidades de todas as linhas do carrinho
func (s State) CartItemCount() int {
	count := 0
	for _, item := range s.Cart {
		count += item.Quantity
	}
	return count
}

// CartTotals calcula subtotal, desconto do cupom e total.
// O total não é limitado a zero: um cupom fixo maior que o subtotal gera total negativo.
func (s State) CartTotals() Totals {
	subtotal := decimal.Zero
	for _, item := range s.Cart {
		subtotal = subtotal.Add(item.LineTotal())
	}

	discount := s.AppliedCoupon.DiscountFor(subtotal)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}

// DiscountFor retorna o desconto do cupom sobre o subtotal. Um cupom nil não dá desconto.
func (c *Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	switch c.Type {
	case CouponPercentage:
		return subtotal.Mul(c.Discount).Div(hundred)
	case CouponFixed:
		return c.Discount
	default:
		return decimal.Zero
	}
}
