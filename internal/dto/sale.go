package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"foodstand/internal/domain"
)

type SaleItemDTO struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

type SaleDTO struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Date        string          `json:"date"`
	Items       []SaleItemDTO   `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type ProductStatDTO struct {
	Quantity     int             `json:"quantity"`
	Revenue      decimal.Decimal `json:"revenue"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

type SalesSummaryDTO struct {
	TotalSales        int                       `json:"totalSales"`
	TotalRevenue      decimal.Decimal           `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal           `json:"averageOrderValue"`
	ProductStats      map[string]ProductStatDTO `json:"productStats"`
	Sales             []SaleDTO                 `json:"sales"`
}

type SalesQuery struct {
	Date   string `validate:"omitempty,datetime=2006-01-02"`
	Period string `validate:"omitempty,oneof=today week month"`
}

func FromSaleItems(items []domain.SaleItem) []SaleItemDTO {
	out := make([]SaleItemDTO, len(items))
	for i, it := range items {
		out[i] = SaleItemDTO{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		}
	}
	return out
}

func FromSale(s domain.Sale) SaleDTO {
	return SaleDTO{
		ID:          s.ID,
		Timestamp:   s.Timestamp.UTC(),
		Date:        s.Date,
		Items:       FromSaleItems(s.Items),
		TotalAmount: s.TotalAmount,
	}
}

func FromSales(sales []domain.Sale) []SaleDTO {
	out := make([]SaleDTO, len(sales))
	for i, s := range sales {
		out[i] = FromSale(s)
	}
	return out
}

func FromSummary(s domain.SalesSummary) SalesSummaryDTO {
	stats := make(map[string]ProductStatDTO, len(s.ProductStats))
	for name, st := range s.ProductStats {
		stats[name] = ProductStatDTO{Quantity: st.Quantity, Revenue: st.Revenue, AveragePrice: st.AveragePrice}
	}
	return SalesSummaryDTO{
		TotalSales:        s.TotalSales,
		TotalRevenue:      s.TotalRevenue,
		AverageOrderValue: s.AverageOrderValue,
		ProductStats:      stats,
		Sales:             FromSales(s.Sales),
	}
}
