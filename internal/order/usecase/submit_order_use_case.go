package usecase

import (
	"context"

	"go.uber.org/zap"

	"foodstand/internal/fulfillment"
	"foodstand/internal/order/service"
)

type FulfillmentService interface {
	Submit(ctx context.Context, order fulfillment.Order) (*service.Receipt, error)
}

type SubmitOrderUseCase struct {
	fulfillmentSvc FulfillmentService
	logger         *zap.Logger
}

func NewSubmitOrderUseCase(fulfillmentSvc FulfillmentService, logger *zap.Logger) *SubmitOrderUseCase {
	return &SubmitOrderUseCase{
		fulfillmentSvc: fulfillmentSvc,
		logger:         logger,
	}
}

// Submit records one order. Lines naming unknown products and recipe
// ingredients that resolve to nothing do not fail the order; they are
// logged and returned in the receipt report.
func (uc *SubmitOrderUseCase) Submit(ctx context.Context, order fulfillment.Order) (*service.Receipt, error) {
	uc.logger.Info("order submitted", zap.Int("lineCount", len(order.Lines())))

	receipt, err := uc.fulfillmentSvc.Submit(ctx, order)
	if err != nil {
		uc.logger.Warn("order rejected", zap.Error(err))
		return nil, err
	}

	if skipped := receipt.Report.SkippedProductIDs; len(skipped) > 0 {
		uc.logger.Warn("order lines skipped, unknown products", zap.String("saleId", receipt.Sale.ID), zap.Int64s("productIds", skipped))
	}

	for _, w := range receipt.Report.Warnings {
		uc.logger.Warn("recipe ingredient not consumed",
			zap.String("saleId", receipt.Sale.ID),
			zap.Int64("productId", w.ProductID),
			zap.String("key", w.Key),
			zap.String("reason", string(w.Reason)),
		)
	}

	return receipt, nil
}
