package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day partition key format of the sales ledger.
const DateLayout = "2006-01-02"

type SaleItem struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

type Sale struct {
	ID          string
	Timestamp   time.Time
	Date        string
	Items       []SaleItem
	TotalAmount decimal.Decimal
}

// SaleFilter bounds a ledger read by inclusive partition keys. Empty bounds
// are open.
type SaleFilter struct {
	From string
	To   string
}

type ProductStat struct {
	Quantity     int
	Revenue      decimal.Decimal
	AveragePrice decimal.Decimal
}

type SalesSummary struct {
	TotalSales        int
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
	ProductStats      map[string]ProductStat
	Sales             []Sale
}

// Shortage describes an order line, or an ingredient it consumes, that the
// current stock cannot cover.
type Shortage struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}
