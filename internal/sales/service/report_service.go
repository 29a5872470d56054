package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"foodstand/internal/domain"
	"foodstand/internal/errors"
)

const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

type Ledger interface {
	FindAll(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error)
}

// Query selects ledger partitions. Date wins over Period; both empty means
// every sale.
type Query struct {
	Date   string
	Period string
}

type ReportService struct {
	ledger   Ledger
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewReportService(ledger Ledger, location *time.Location, logger *zap.Logger) *ReportService {
	if location == nil {
		location = time.Local
	}
	return &ReportService{
		ledger:   ledger,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// ListSales returns the sales in the queried window. A ledger that cannot be
// read reports no sales; only a malformed query is an error.
func (s *ReportService) ListSales(ctx context.Context, q Query) ([]domain.Sale, error) {
	filter, err := s.Window(q)
	if err != nil {
		return nil, err
	}

	sales, err := s.ledger.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("reading sales failed, reporting none",
			zap.String("from", filter.From),
			zap.String("to", filter.To),
			zap.Error(err),
		)
		return []domain.Sale{}, nil
	}
	return sales, nil
}

func (s *ReportService) Summary(ctx context.Context, q Query) (*domain.SalesSummary, error) {
	sales, err := s.ListSales(ctx, q)
	if err != nil {
		return nil, err
	}
	summary := Summarize(sales)
	return &summary, nil
}

// Window turns a query into inclusive partition bounds in the stand time
// zone. A week is today and the six days before it; a month is 30 days.
func (s *ReportService) Window(q Query) (domain.SaleFilter, error) {
	if q.Date != "" {
		if _, err := time.ParseInLocation(domain.DateLayout, q.Date, s.location); err != nil {
			return domain.SaleFilter{}, errors.NewValidationError("invalid date", errors.ValidationDetail{
				Field:   "date",
				Message: "date must use the YYYY-MM-DD format",
			})
		}
		return domain.SaleFilter{From: q.Date, To: q.Date}, nil
	}

	today := s.now().In(s.location)
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format(domain.DateLayout) }

	switch q.Period {
	case "":
		return domain.SaleFilter{}, nil
	case PeriodToday:
		return domain.SaleFilter{From: day(0), To: day(0)}, nil
	case PeriodWeek:
		return domain.SaleFilter{From: day(-6), To: day(0)}, nil
	case PeriodMonth:
		return domain.SaleFilter{From: day(-29), To: day(0)}, nil
	default:
		return domain.SaleFilter{}, errors.NewValidationError("invalid period", errors.ValidationDetail{
			Field:   "period",
			Message: "period must be one of: today week month",
		})
	}
}

// Summarize aggregates sales. Product statistics are keyed by the product
// name recorded on each line, so renamed products are reported apart.
func Summarize(sales []domain.Sale) domain.SalesSummary {
	summary := domain.SalesSummary{
		TotalSales:        len(sales),
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		ProductStats:      make(map[string]domain.ProductStat),
		Sales:             sales,
	}

	for _, sale := range sales {
		summary.TotalRevenue = summary.TotalRevenue.Add(sale.TotalAmount)
		for _, item := range sale.Items {
			st := summary.ProductStats[item.ProductName]
			st.Quantity += item.Quantity
			st.Revenue = st.Revenue.Add(item.TotalPrice)
			summary.ProductStats[item.ProductName] = st
		}
	}

	for name, st := range summary.ProductStats {
		st.AveragePrice = decimal.Zero
		if st.Quantity > 0 {
			st.AveragePrice = st.Revenue.DivRound(decimal.NewFromInt(int64(st.Quantity)), 2)
		}
		summary.ProductStats[name] = st
	}

	if len(sales) > 0 {
		summary.AverageOrderValue = summary.TotalRevenue.DivRound(decimal.NewFromInt(int64(len(sales))), 2)
	}

	return summary
}
