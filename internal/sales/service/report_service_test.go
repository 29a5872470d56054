package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"foodstand/internal/domain"
	apperrors "foodstand/internal/errors"
)

type mockLedger struct {
	FindAllFunc func(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error)
}

func (m *mockLedger) FindAll(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	return m.FindAllFunc(ctx, filter)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestReportService(ledger Ledger) *ReportService {
	paris, _ := time.LoadLocation("Europe/Paris")
	s := NewReportService(ledger, paris, zap.NewNop())
	// 23:30 UTC is already the 15th in Paris
	s.now = func() time.Time { return time.Date(2026, 7, 14, 23, 30, 0, 0, time.UTC) }
	return s
}

func TestWindow(t *testing.T) {
	s := newTestReportService(nil)

	tests := []struct {
		name     string
		query    Query
		expected domain.SaleFilter
	}{
		{name: "everything", query: Query{}, expected: domain.SaleFilter{}},
		{name: "today in stand time zone", query: Query{Period: PeriodToday}, expected: domain.SaleFilter{From: "2026-07-15", To: "2026-07-15"}},
		{name: "week", query: Query{Period: PeriodWeek}, expected: domain.SaleFilter{From: "2026-07-09", To: "2026-07-15"}},
		{name: "month", query: Query{Period: PeriodMonth}, expected: domain.SaleFilter{From: "2026-06-16", To: "2026-07-15"}},
		{name: "date wins over period", query: Query{Date: "2026-01-02", Period: PeriodWeek}, expected: domain.SaleFilter{From: "2026-01-02", To: "2026-01-02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Window(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWindow_Invalid(t *testing.T) {
	s := newTestReportService(nil)

	for _, q := range []Query{{Period: "year"}, {Date: "14/07/2026"}} {
		_, err := s.Window(q)
		_, ok := apperrors.IsValidationError(err)
		assert.True(t, ok, "%+v", q)
	}
}

func TestListSales_PassesWindowToLedger(t *testing.T) {
	var got domain.SaleFilter
	s := newTestReportService(&mockLedger{FindAllFunc: func(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
		got = filter
		return []domain.Sale{}, nil
	}})

	_, err := s.ListSales(context.Background(), Query{Period: PeriodWeek})
	require.NoError(t, err)
	assert.Equal(t, domain.SaleFilter{From: "2026-07-09", To: "2026-07-15"}, got)
}

func TestListSales_LedgerFailureReportsNoSales(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := newTestReportService(&mockLedger{FindAllFunc: func(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
		return nil, errors.New("db gone")
	}})
	s.logger = zap.New(core)

	sales, err := s.ListSales(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.NotNil(t, sales)

	summary, err := s.Summary(context.Background(), Query{Period: PeriodToday})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalSales)
	assert.True(t, summary.TotalRevenue.IsZero())

	assert.Equal(t, 2, logs.FilterMessage("reading sales failed, reporting none").Len())
}

func TestSummarize(t *testing.T) {
	sales := []domain.Sale{
		{ID: "1", TotalAmount: dec("11.50"), Items: []domain.SaleItem{
			{ProductName: "Hot-dog", Quantity: 2, TotalPrice: dec("9.00")},
			{ProductName: "Coca", Quantity: 1, TotalPrice: dec("2.50")},
		}},
		{ID: "2", TotalAmount: dec("5.00"), Items: []domain.SaleItem{
			{ProductName: "Coca", Quantity: 2, TotalPrice: dec("5.00")},
		}},
		{ID: "3", TotalAmount: dec("4.50"), Items: []domain.SaleItem{
			{ProductName: "Hot-dog", Quantity: 1, TotalPrice: dec("4.50")},
		}},
	}

	summary := Summarize(sales)

	assert.Equal(t, 3, summary.TotalSales)
	assert.True(t, dec("21").Equal(summary.TotalRevenue))
	assert.True(t, dec("7").Equal(summary.AverageOrderValue))
	assert.Equal(t, 3, summary.ProductStats["Hot-dog"].Quantity)
	assert.True(t, dec("13.5").Equal(summary.ProductStats["Hot-dog"].Revenue))
	assert.True(t, dec("4.5").Equal(summary.ProductStats["Hot-dog"].AveragePrice))
	assert.Equal(t, 3, summary.ProductStats["Coca"].Quantity)
	assert.True(t, dec("7.5").Equal(summary.ProductStats["Coca"].Revenue))
	assert.Len(t, summary.Sales, 3)
}

func TestSummarize_AverageRoundsToCents(t *testing.T) {
	summary := Summarize([]domain.Sale{
		{TotalAmount: dec("1")}, {TotalAmount: dec("1")}, {TotalAmount: dec("0")},
	})

	assert.Equal(t, "0.67", summary.AverageOrderValue.StringFixed(2))
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Zero(t, summary.TotalSales)
	assert.True(t, summary.TotalRevenue.IsZero())
	assert.True(t, summary.AverageOrderValue.IsZero())
	assert.NotNil(t, summary.ProductStats)
}
