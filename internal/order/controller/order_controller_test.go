package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodstand/internal/domain"
	apperrors "foodstand/internal/errors"
	"foodstand/internal/fulfillment"
	"foodstand/internal/order/service"
	"foodstand/internal/stock"
)

type mockSubmitOrderUseCase struct {
	SubmitFunc func(ctx context.Context, order fulfillment.Order) (*service.Receipt, error)
}

func (m *mockSubmitOrderUseCase) Submit(ctx context.Context, order fulfillment.Order) (*service.Receipt, error) {
	return m.SubmitFunc(ctx, order)
}

func post(c *OrderController, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/order", strings.NewReader(body)))
	return rec
}

func TestSubmit_Success(t *testing.T) {
	var got fulfillment.Order
	uc := &mockSubmitOrderUseCase{SubmitFunc: func(ctx context.Context, order fulfillment.Order) (*service.Receipt, error) {
		got = order
		price := decimal.RequireFromString("4.50")
		return &service.Receipt{
			Sale: domain.Sale{
				ID:          "sale-1",
				Timestamp:   time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC),
				Items:       []domain.SaleItem{{ProductID: 4, ProductName: "Hot-dog", Quantity: 2, UnitPrice: price, TotalPrice: decimal.RequireFromString("9")}},
				TotalAmount: decimal.RequireFromString("9"),
			},
			Report: fulfillment.Report{
				Warnings: []stock.Warning{{ProductID: 4, Key: "moutarde", Reason: stock.ReasonUnresolvedIngredient}},
			},
		}, nil
	}}
	c := NewOrderController(uc, zap.NewNop())

	rec := post(c, `{"order": {"4": 2, "5": 0}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fulfillment.Order{4: 2, 5: 0}, got)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Order processed successfully", body["message"])
	assert.Equal(t, "sale-1", body["saleId"])
	assert.Equal(t, []any{}, body["skipped"])
	assert.Len(t, body["items"], 1)
	warnings := body["warnings"].([]any)
	require.Len(t, warnings, 1)
	assert.Equal(t, "UNRESOLVED_INGREDIENT", warnings[0].(map[string]any)["reason"])
}

func TestSubmit_EquivalentKeysAddUp(t *testing.T) {
	var got fulfillment.Order
	uc := &mockSubmitOrderUseCase{SubmitFunc: func(ctx context.Context, order fulfillment.Order) (*service.Receipt, error) {
		got = order
		return &service.Receipt{}, nil
	}}
	c := NewOrderController(uc, zap.NewNop())

	rec := post(c, `{"order": {"7": 1, "07": 2}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fulfillment.Order{7: 3}, got)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	c := NewOrderController(&mockSubmitOrderUseCase{}, zap.NewNop())

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "empty body", body: ``, field: ""},
		{name: "malformed json", body: `{"order":`, field: "body"},
		{name: "missing order", body: `{}`, field: "order"},
		{name: "empty order", body: `{"order": {}}`, field: "order"},
		{name: "non numeric key", body: `{"order": {"abc": 1}}`, field: "order[abc]"},
		{name: "zero id", body: `{"order": {"0": 1}}`, field: "order[0]"},
		{name: "negative quantity", body: `{"order": {"4": -1}}`, field: "order[4]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(c, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body struct {
				Error   string                       `json:"error"`
				Details []apperrors.ValidationDetail `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "VALIDATION_ERROR", body.Error)
			if tt.field != "" {
				require.NotEmpty(t, body.Details)
				assert.Equal(t, tt.field, body.Details[0].Field)
			}
		})
	}
}

func TestSubmit_InsufficientStock(t *testing.T) {
	uc := &mockSubmitOrderUseCase{SubmitFunc: func(ctx context.Context, order fulfillment.Order) (*service.Receipt, error) {
		return nil, apperrors.NewInsufficientStockError("insufficient stock", apperrors.ShortageDetail{
			ProductID: 4, ProductName: "Hot-dog", Requested: 12, Available: 9,
		})
	}}
	c := NewOrderController(uc, zap.NewNop())

	rec := post(c, `{"order": {"4": 12}}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	var body struct {
		Error   string                     `json:"error"`
		Details []apperrors.ShortageDetail `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Error)
	assert.Equal(t, 9, body.Details[0].Available)
}
