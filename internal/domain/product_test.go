package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_HasRecipe(t *testing.T) {
	simple := Product{ID: 1, Name: "Coca", Stock: 12}
	composite := Product{ID: 2, Name: "Hot-dog", Recipe: Recipe{{Key: "saucisse", Quantity: 1}}}

	assert.False(t, simple.HasRecipe())
	assert.True(t, composite.HasRecipe())
	assert.False(t, Product{Recipe: Recipe{}}.HasRecipe())
}

func TestProduct_Apply_OnlySuppliedFields(t *testing.T) {
	stored := Product{
		ID:        7,
		Name:      "Hot-dog",
		Price:     decimal.RequireFromString("4.50"),
		Stock:     0,
		Unit:      DefaultUnit,
		IsVisible: true,
		Recipe:    Recipe{{Key: "saucisse", Quantity: 1}, {Key: "baguette", Quantity: 1}},
	}

	price := decimal.RequireFromString("5.00")
	hidden := false
	updated := stored.Apply(ProductPatch{Price: &price, IsVisible: &hidden})

	assert.True(t, price.Equal(updated.Price))
	assert.False(t, updated.IsVisible)
	assert.Equal(t, "Hot-dog", updated.Name)
	assert.Equal(t, stored.Recipe, updated.Recipe)
	assert.True(t, stored.IsVisible, "patch must not mutate the stored record")
}

func TestProduct_Apply_ReplacesRecipe(t *testing.T) {
	stored := Product{ID: 7, Recipe: Recipe{{Key: "saucisse", Quantity: 1}}}
	recipe := Recipe{{Key: "saucisse", Quantity: 2}}

	updated := stored.Apply(ProductPatch{Recipe: &recipe})
	recipe[0].Quantity = 9

	assert.Equal(t, 2, updated.Recipe[0].Quantity)
	assert.Equal(t, 1, stored.Recipe[0].Quantity)
}

func TestProduct_Clone_DetachesRecipe(t *testing.T) {
	p := Product{Recipe: Recipe{{Key: "saucisse", Quantity: 1}}}
	c := p.Clone()
	c.Recipe[0].Quantity = 3

	assert.Equal(t, 1, p.Recipe[0].Quantity)
}

func TestIndexOf(t *testing.T) {
	products := []Product{{ID: 10}, {ID: 20}, {ID: 30}}

	i, ok := IndexOf(products, 20)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = IndexOf(products, 99)
	assert.False(t, ok)
}
