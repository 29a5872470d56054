package controller

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"foodstand/internal/commons"
	"foodstand/internal/dto"
	apperrors "foodstand/internal/errors"
	"foodstand/internal/fulfillment"
	"foodstand/internal/order/service"
)

type SubmitOrderUseCase interface {
	Submit(ctx context.Context, order fulfillment.Order) (*service.Receipt, error)
}

type OrderController struct {
	useCase SubmitOrderUseCase
	logger  *zap.Logger
}

func NewOrderController(useCase SubmitOrderUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		logger:  logger,
	}
}

// Submit handles POST /api/order. Unknown product ids are skipped and listed
// in the response; an order where every id is unknown is rejected with 400
// VALIDATION_ERROR, one detail per id, and records no sale.
func (c *OrderController) Submit(w http.ResponseWriter, r *http.Request) {
	traceID := commons.TraceID(r.Context())
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.SubmitOrderRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid order request", zap.Error(err))
		commons.WriteError(w, traceID, err, logger)
		return
	}

	order, err := parseOrder(req.Order)
	if err != nil {
		logger.Warn("invalid order keys", zap.Error(err))
		commons.WriteError(w, traceID, err, logger)
		return
	}

	receipt, err := c.useCase.Submit(r.Context(), order)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	skipped := receipt.Report.SkippedProductIDs
	if skipped == nil {
		skipped = []int64{}
	}

	commons.WriteJSON(w, http.StatusOK, dto.SubmitOrderResponse{
		TraceID:     traceID,
		Message:     "Order processed successfully",
		SaleID:      receipt.Sale.ID,
		TotalAmount: receipt.Sale.TotalAmount,
		Items:       dto.FromSaleItems(receipt.Sale.Items),
		Skipped:     skipped,
		Warnings:    dto.FromWarnings(receipt.Report.Warnings),
		Timestamp:   receipt.Sale.Timestamp.UTC(),
	}, logger)
}

// parseOrder turns JSON object keys into product ids. Keys naming the same
// id, such as "7" and "07", add up.
func parseOrder(raw map[string]int) (fulfillment.Order, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	order := make(fulfillment.Order, len(raw))
	var details []apperrors.ValidationDetail
	for _, k := range keys {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil || id <= 0 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "order[" + k + "]",
				Message: "product id must be a positive integer",
			})
			continue
		}
		order[id] += raw[k]
	}

	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}
	return order, nil
}
