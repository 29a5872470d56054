package product

import (
	"go.uber.org/zap"

	"foodstand/internal/product/controller"
	"foodstand/internal/product/service"
	"foodstand/internal/stock"
)

func NewModule(uow service.UnitOfWork, broadcaster service.Broadcaster, resolver *stock.Resolver, logger *zap.Logger) (*controller.ProductsController, *service.ProductService) {
	svc := service.NewProductService(uow, broadcaster, resolver, logger)
	return controller.NewProductsController(svc, logger), svc
}
