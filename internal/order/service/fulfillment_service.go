package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"foodstand/internal/domain"
	"foodstand/internal/errors"
	"foodstand/internal/fulfillment"
	"foodstand/internal/inventory"
)

type UnitOfWork interface {
	Mutate(ctx context.Context, op string, fn inventory.MutateFunc) ([]domain.Product, error)
}

type SalesLedger interface {
	Append(ctx context.Context, tx *sql.Tx, sale domain.Sale) error
}

type Broadcaster interface {
	ProductsChanged(ctx context.Context, products []domain.Product) []domain.ProductView
}

// Receipt is what a committed order leaves behind.
type Receipt struct {
	Sale   domain.Sale
	Report fulfillment.Report
}

type FulfillmentService struct {
	uow           UnitOfWork
	engine        *fulfillment.Engine
	ledger        SalesLedger
	broadcaster   Broadcaster
	logger        *zap.Logger
	allowOversell bool
	now           func() time.Time
}

func NewFulfillmentService(
	uow UnitOfWork,
	engine *fulfillment.Engine,
	ledger SalesLedger,
	broadcaster Broadcaster,
	logger *zap.Logger,
	allowOversell bool,
) *FulfillmentService {
	return &FulfillmentService{
		uow:           uow,
		engine:        engine,
		ledger:        ledger,
		broadcaster:   broadcaster,
		logger:        logger,
		allowOversell: allowOversell,
		now:           time.Now,
	}
}

// Submit consumes stock for order and appends the sale in one transaction,
// then publishes the new view.
func (s *FulfillmentService) Submit(ctx context.Context, order fulfillment.Order) (*Receipt, error) {
	var receipt Receipt

	products, err := s.uow.Mutate(ctx, "order.submit", func(ctx context.Context, tx *sql.Tx, products []domain.Product) ([]domain.Product, error) {
		result, err := s.engine.Fulfill(order, products, s.now())
		if err != nil {
			return nil, err
		}

		if len(result.Sale.Items) == 0 {
			return nil, unknownProducts(result.Report.SkippedProductIDs)
		}

		if shortages := s.engine.Shortages(order, products, result.Products); len(shortages) > 0 {
			if !s.allowOversell {
				return nil, insufficientStock(shortages)
			}
			s.logger.Warn("overselling", zap.Int("shortages", len(shortages)))
		}

		if err := s.ledger.Append(ctx, tx, result.Sale); err != nil {
			return nil, errors.NewInternalError("recording sale", err)
		}

		receipt = Receipt{Sale: result.Sale, Report: result.Report}
		return result.Products, nil
	})
	if err != nil {
		if stderrors.Is(err, fulfillment.ErrEmptyOrder) {
			return nil, errors.NewValidationError("order is empty", errors.ValidationDetail{
				Field:   "order",
				Message: "order must contain at least one positive quantity",
			})
		}
		return nil, err
	}

	s.logger.Info("sale recorded",
		zap.String("saleId", receipt.Sale.ID),
		zap.String("totalAmount", receipt.Sale.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(receipt.Sale.Items)),
	)

	s.broadcaster.ProductsChanged(ctx, products)
	return &receipt, nil
}

func unknownProducts(ids []int64) error {
	details := make([]errors.ValidationDetail, len(ids))
	for i, id := range ids {
		details[i] = errors.ValidationDetail{
			Field:   fmt.Sprintf("order[%d]", id),
			Message: "product does not exist",
		}
	}
	return errors.NewValidationError("order references no known product", details...)
}

func insufficientStock(shortages []domain.Shortage) error {
	details := make([]errors.ShortageDetail, len(shortages))
	for i, sh := range shortages {
		details[i] = errors.ShortageDetail{
			ProductID:   sh.ProductID,
			ProductName: sh.ProductName,
			Requested:   sh.Requested,
			Available:   sh.Available,
		}
	}
	return errors.NewInsufficientStockError("insufficient stock", details...)
}
