package sales

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"foodstand/internal/sales/controller"
	"foodstand/internal/sales/repository"
	"foodstand/internal/sales/service"
)

func NewModule(db *sql.DB, location *time.Location, logger *zap.Logger) (*controller.SalesController, *repository.SQLRepository) {
	ledger := repository.NewSQLRepository(db, logger)
	svc := service.NewReportService(ledger, location, logger)
	return controller.NewSalesController(svc, logger), ledger
}
