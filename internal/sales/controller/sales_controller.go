package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"foodstand/internal/commons"
	"foodstand/internal/domain"
	"foodstand/internal/dto"
	"foodstand/internal/sales/service"
)

type ReportService interface {
	ListSales(ctx context.Context, q service.Query) ([]domain.Sale, error)
	Summary(ctx context.Context, q service.Query) (*domain.SalesSummary, error)
}

type SalesController struct {
	service ReportService
	logger  *zap.Logger
}

func NewSalesController(service ReportService, logger *zap.Logger) *SalesController {
	return &SalesController{
		service: service,
		logger:  logger,
	}
}

func (c *SalesController) List(w http.ResponseWriter, r *http.Request) {
	traceID := commons.TraceID(r.Context())

	q, err := parseQuery(r)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	sales, err := c.service.ListSales(r.Context(), q)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.FromSales(sales), c.logger)
}

func (c *SalesController) Summary(w http.ResponseWriter, r *http.Request) {
	traceID := commons.TraceID(r.Context())

	q, err := parseQuery(r)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	summary, err := c.service.Summary(r.Context(), q)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.FromSummary(*summary), c.logger)
}

func parseQuery(r *http.Request) (service.Query, error) {
	values := r.URL.Query()
	req := dto.SalesQuery{
		Date:   values.Get("date"),
		Period: values.Get("period"),
	}
	if err := commons.ValidateStruct(req); err != nil {
		return service.Query{}, err
	}
	return service.Query{Date: req.Date, Period: req.Period}, nil
}
