package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"foodstand/internal/commons"
	"foodstand/internal/domain"
	"foodstand/internal/dto"
	apperrors "foodstand/internal/errors"
)

type ProductService interface {
	List(ctx context.Context) ([]domain.ProductView, error)
	Create(ctx context.Context, p domain.Product) (*domain.ProductView, error)
	Update(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.ProductView, error)
	Delete(ctx context.Context, id int64) (*domain.Product, error)
	ToggleVisibility(ctx context.Context, id int64) (*domain.ProductView, error)
	Restock(ctx context.Context, id int64, delta int) (*domain.ProductView, error)
}

type ProductsController struct {
	service ProductService
	logger  *zap.Logger
}

func NewProductsController(service ProductService, logger *zap.Logger) *ProductsController {
	return &ProductsController{
		service: service,
		logger:  logger,
	}
}

func (c *ProductsController) List(w http.ResponseWriter, r *http.Request) {
	traceID := commons.TraceID(r.Context())

	views, err := c.service.List(r.Context())
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.FromViews(views), c.logger)
}

func (c *ProductsController) Create(w http.ResponseWriter, r *http.Request) {
	traceID := commons.TraceID(r.Context())
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.CreateProductRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid create product request", zap.Error(err))
		commons.WriteError(w, traceID, err, logger)
		return
	}

	view, err := c.service.Create(r.Context(), req.ToDomain())
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.FromView(*view), logger)
}

func (c *ProductsController) Update(w http.ResponseWriter, r *http.Request) {
	traceID := commons.TraceID(r.Context())
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.productID(w, r, traceID)
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid update product request", zap.Int64("productId", id), zap.Error(err))
		commons.WriteError(w, traceID, err, logger)
		return
	}

	view, err := c.service.Update(r.Context(), id, req.ToPatch())
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.FromView(*view), logger)
}

func (c *ProductsController) Delete(w http.ResponseWriter, r *http.Request) {
	traceID := commons.TraceID(r.Context())

	id, ok := c.productID(w, r, traceID)
	if !ok {
		return
	}

	removed, err := c.service.Delete(r.Context(), id)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.FromProduct(*removed), c.logger)
}

func (c *ProductsController) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	traceID := commons.TraceID(r.Context())

	id, ok := c.productID(w, r, traceID)
	if !ok {
		return
	}

	view, err := c.service.ToggleVisibility(r.Context(), id)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.FromView(*view), c.logger)
}

func (c *ProductsController) Restock(w http.ResponseWriter, r *http.Request) {
	traceID := commons.TraceID(r.Context())
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.productID(w, r, traceID)
	if !ok {
		return
	}

	var req dto.RestockRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	view, err := c.service.Restock(r.Context(), id, req.Quantity)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.FromView(*view), logger)
}

func (c *ProductsController) productID(w http.ResponseWriter, r *http.Request, traceID string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		commons.WriteValidationError(w, traceID, "invalid product id", c.logger, apperrors.ValidationDetail{
			Field:   "id",
			Message: "id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}
