package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"foodstand/internal/stock"
)

// SubmitOrderRequest maps product ids, as JSON object keys, to quantities.
type SubmitOrderRequest struct {
	Order map[string]int `json:"order" validate:"required,min=1,max=100,dive,gte=0,lte=10000"`
}

type WarningDTO struct {
	ProductID int64  `json:"productId"`
	Key       string `json:"key"`
	Reason    string `json:"reason"`
}

type SubmitOrderResponse struct {
	TraceID     string          `json:"traceId"`
	Message     string          `json:"message"`
	SaleID      string          `json:"saleId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []SaleItemDTO   `json:"items"`
	Skipped     []int64         `json:"skipped"`
	Warnings    []WarningDTO    `json:"warnings"`
	Timestamp   time.Time       `json:"timestamp"`
}

func FromWarnings(warnings []stock.Warning) []WarningDTO {
	out := make([]WarningDTO, len(warnings))
	for i, w := range warnings {
		out[i] = WarningDTO{ProductID: w.ProductID, Key: w.Key, Reason: string(w.Reason)}
	}
	return out
}
