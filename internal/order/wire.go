package order

import (
	"go.uber.org/zap"

	"foodstand/internal/config"
	"foodstand/internal/fulfillment"
	"foodstand/internal/order/controller"
	"foodstand/internal/order/service"
	"foodstand/internal/order/usecase"
)

func NewModule(
	uow service.UnitOfWork,
	engine *fulfillment.Engine,
	ledger service.SalesLedger,
	broadcaster service.Broadcaster,
	cfg config.OrderConfig,
	logger *zap.Logger,
) *controller.OrderController {
	fulfillmentSvc := service.NewFulfillmentService(uow, engine, ledger, broadcaster, logger, cfg.AllowOversell)
	useCase := usecase.NewSubmitOrderUseCase(fulfillmentSvc, logger)
	return controller.NewOrderController(useCase, logger)
}
