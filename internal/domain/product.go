package domain

import "github.com/shopspring/decimal"

const DefaultUnit = "pieces"

type Product struct {
	ID           int64
	Name         string
	Price        decimal.Decimal
	Stock        int
	IsIngredient bool
	Unit         string
	IsVisible    bool
	Recipe       Recipe
}

// HasRecipe reports whether the product is assembled from ingredients
// rather than sold from its own stock.
func (p Product) HasRecipe() bool {
	return len(p.Recipe) > 0
}

func (p Product) Clone() Product {
	c := p
	if p.Recipe != nil {
		c.Recipe = append(Recipe(nil), p.Recipe...)
	}
	return c
}

// ProductPatch carries the fields of a partial update. Nil fields keep the
// stored value.
type ProductPatch struct {
	Name         *string
	Price        *decimal.Decimal
	Stock        *int
	IsIngredient *bool
	Unit         *string
	IsVisible    *bool
	Recipe       *Recipe
}

func (p Product) Apply(patch ProductPatch) Product {
	out := p.Clone()
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Price != nil {
		out.Price = *patch.Price
	}
	if patch.Stock != nil {
		out.Stock = *patch.Stock
	}
	if patch.IsIngredient != nil {
		out.IsIngredient = *patch.IsIngredient
	}
	if patch.Unit != nil {
		out.Unit = *patch.Unit
	}
	if patch.IsVisible != nil {
		out.IsVisible = *patch.IsVisible
	}
	if patch.Recipe != nil {
		out.Recipe = append(Recipe(nil), (*patch.Recipe)...)
	}
	return out
}

// ProductView is a product as published to terminals. For recipe products
// Stock carries the derived availability; the stored record keeps its raw value.
type ProductView struct {
	Product
	AvailableStock int
}

func IndexOf(products []Product, id int64) (int, bool) {
	for i := range products {
		if products[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func CloneAll(products []Product) []Product {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}
