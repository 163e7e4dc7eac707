package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var cmpOpts = []cmp.Option{
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	cmpopts.EquateEmpty(),
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, money(expected).Equal(actual), "expected %s, got %s", expected, actual.StringFixed(2))
}

func burger() Product {
	return Product{
		ID:       "1",
		Name:     "Hambúrguer Clássico",
		Price:    money("24.90"),
		Category: "hamburguers",
		AddonOptions: []Addon{
			{Name: "Bacon extra", Price: money("4.00")},
			{Name: "Cheddar", Price: money("3.50")},
		},
	}
}

func soda() Product {
	return Product{
		ID:       "4",
		Name:     "Refrigerante 350ml",
		Price:    money("5.90"),
		Category: "bebidas",
	}
}

func item(p Product, qty int, observation string) CartItem {
	return CartItem{Product: p, Quantity: qty, Observation: observation}
}
