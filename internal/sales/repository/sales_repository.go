package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"foodstand/internal/domain"
)

// itemRecord is the stored shape of a sale line.
type itemRecord struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// SQLRepository is the append-only sales ledger.
type SQLRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLRepository(db *sql.DB, logger *zap.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

// Append records sale inside tx so it commits together with the stock it
// consumed.
func (r *SQLRepository) Append(ctx context.Context, tx *sql.Tx, sale domain.Sale) error {
	records := make([]itemRecord, len(sale.Items))
	for i, it := range sale.Items {
		records[i] = itemRecord(it)
	}

	items, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding sale items: %w", err)
	}

	query := `
		INSERT INTO sales (id, timestamp_ms, sale_date, items, total_amount)
		VALUES (?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		sale.ID, sale.Timestamp.UnixMilli(), sale.Date, string(items), sale.TotalAmount.StringFixed(2),
	)
	if err != nil {
		return fmt.Errorf("inserting sale %s: %w", sale.ID, err)
	}

	return nil
}

// FindAll returns the sales whose partition key falls within filter, oldest
// first. Rows that cannot be read are skipped with a warning.
func (r *SQLRepository) FindAll(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	var conds []string
	var args []any
	if filter.From != "" {
		conds = append(conds, "sale_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conds = append(conds, "sale_date <= ?")
		args = append(args, filter.To)
	}

	query := `SELECT id, timestamp_ms, sale_date, items, total_amount FROM sales`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY timestamp_ms, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sales: %w", err)
	}
	defer rows.Close()

	sales := []domain.Sale{}
	for rows.Next() {
		var s domain.Sale
		var ms int64
		var items string

		if err := rows.Scan(&s.ID, &ms, &s.Date, &items, &s.TotalAmount); err != nil {
			r.logger.Warn("unreadable sale skipped", zap.String("saleId", s.ID), zap.Error(err))
			continue
		}

		var records []itemRecord
		if err := json.Unmarshal([]byte(items), &records); err != nil {
			r.logger.Warn("unreadable sale skipped", zap.String("saleId", s.ID), zap.Error(err))
			continue
		}
		s.Items = make([]domain.SaleItem, len(records))
		for i, rec := range records {
			s.Items[i] = domain.SaleItem(rec)
		}
		s.Timestamp = time.UnixMilli(ms).UTC()

		sales = append(sales, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sale rows: %w", err)
	}

	return sales, nil
}
