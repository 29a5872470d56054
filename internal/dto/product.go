package dto

import (
	"github.com/shopspring/decimal"

	"foodstand/internal/domain"
)

type ProductDTO struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	IsIngredient bool            `json:"isIngredient"`
	Unit         string          `json:"unit"`
	IsVisible    bool            `json:"isVisible"`
	Recipe       domain.Recipe   `json:"recipe,omitempty"`
}

// ProductViewDTO is what terminals render: the record plus the quantity that
// can be sold right now.
type ProductViewDTO struct {
	ProductDTO
	AvailableStock int `json:"availableStock"`
}

type CreateProductRequest struct {
	ID           *int64          `json:"id" validate:"omitempty,gte=0"`
	Name         string          `json:"name" validate:"required,max=255"`
	Price        decimal.Decimal `json:"price" validate:"gte=0"`
	Stock        int             `json:"stock"`
	IsIngredient bool            `json:"isIngredient"`
	Unit         string          `json:"unit" validate:"max=50"`
	IsVisible    *bool           `json:"isVisible"`
	Recipe       domain.Recipe   `json:"recipe"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Price        *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Stock        *int             `json:"stock"`
	IsIngredient *bool            `json:"isIngredient"`
	Unit         *string          `json:"unit" validate:"omitempty,max=50"`
	IsVisible    *bool            `json:"isVisible"`
	Recipe       *domain.Recipe   `json:"recipe"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" validate:"ne=0,gte=-100000,lte=100000"`
}

func (r CreateProductRequest) ToDomain() domain.Product {
	p := domain.Product{
		Name:         r.Name,
		Price:        r.Price,
		Stock:        r.Stock,
		IsIngredient: r.IsIngredient,
		Unit:         r.Unit,
		IsVisible:    true,
		Recipe:       r.Recipe,
	}
	if r.ID != nil {
		p.ID = *r.ID
	}
	if r.IsVisible != nil {
		p.IsVisible = *r.IsVisible
	}
	return p
}

func (r UpdateProductRequest) ToPatch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:         r.Name,
		Price:        r.Price,
		Stock:        r.Stock,
		IsIngredient: r.IsIngredient,
		Unit:         r.Unit,
		IsVisible:    r.IsVisible,
		Recipe:       r.Recipe,
	}
}

func FromProduct(p domain.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Stock:        p.Stock,
		IsIngredient: p.IsIngredient,
		Unit:         p.Unit,
		IsVisible:    p.IsVisible,
		Recipe:       p.Recipe,
	}
}

func FromView(v domain.ProductView) ProductViewDTO {
	return ProductViewDTO{
		ProductDTO:     FromProduct(v.Product),
		AvailableStock: v.AvailableStock,
	}
}

func FromViews(views []domain.ProductView) []ProductViewDTO {
	out := make([]ProductViewDTO, len(views))
	for i, v := range views {
		out[i] = FromView(v)
	}
	return out
}
