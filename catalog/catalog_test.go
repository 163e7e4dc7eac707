package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productIDs(c *Catalog, term, category string) []string {
	var ids []string
	for _, p := range c.Search(term, category) {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, "Bella Vista Restaurante", c.Restaurant.Name)
	assert.Len(t, c.Categories(), 4)
	assert.Len(t, c.Products(), 8)
	assert.Len(t, c.Restaurant.WeeklySchedule, 7)

	p, err := c.Product("1")
	require.NoError(t, err)
	assert.Equal(t, "Hambúrguer Clássico", p.Name)
	assert.Equal(t, "24.9", p.Price.String())
	assert.Len(t, p.AddonOptions, 2)
}

func TestProduct_NotFound(t *testing.T) {
	_, err := Default().Product("42")

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSearch(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		term     string
		category string
		expected []string
	}{
		{"category without term", "", "pizzas", []string{"2", "6"}},
		{"everything", "", "", []string{"1", "2", "3", "4", "5", "6", "7", "8"}},
		{"accent insensitive name", "hamburguer", "pizzas", []string{"1", "5"}},
		{"description", "MANJERICAO", "", []string{"2"}},
		{"category name", "bebidas", "", []string{"4", "8"}},
		{"no match", "sushi", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, productIDs(c, tt.term, tt.category))
		})
	}
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	tests := map[string]string{
		"unknown category": `
categories: [{id: a, name: A}]
products: [{id: "1", name: X, price: "1", category: b}]`,
		"bad price": `
categories: [{id: a, name: A}]
products: [{id: "1", name: X, price: "abc", category: a}]`,
		"negative price": `
categories: [{id: a, name: A}]
products: [{id: "1", name: X, price: "-1", category: a}]`,
		"duplicated id": `
categories: [{id: a, name: A}]
products: [{id: "1", name: X, price: "1", category: a}, {id: "1", name: Y, price: "2", category: a}]`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestDemoOrders(t *testing.T) {
	orders := Default().DemoOrders()

	require.Len(t, orders, 7)
	assert.Equal(t, "EMB0007", orders[0].ID)
	assert.Equal(t, "EMB0001", orders[6].ID)
	assert.Len(t, orders[0].Items, 2)
	assert.Equal(t, "Sem picles", orders[0].Items[0].Observation)
}
