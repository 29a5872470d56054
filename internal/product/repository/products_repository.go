package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"foodstand/internal/domain"
	"foodstand/internal/errors"
)

const productColumns = `id, name, price, stock, is_ingredient, unit, is_visible, recipe`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLRepository is the inventory store. Products keep their insertion order
// through the position column; ingredient matching depends on it.
type SQLRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLRepository(db *sql.DB, logger *zap.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

func (r *SQLRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	return r.findAll(ctx, r.db)
}

// ReadAllTx returns every product together with the inventory version the
// snapshot belongs to.
func (r *SQLRepository) ReadAllTx(ctx context.Context, tx *sql.Tx) ([]domain.Product, int64, error) {
	var version int64
	err := tx.QueryRowContext(ctx, `SELECT version FROM inventory_version WHERE id = 1`).Scan(&version)
	if err != nil {
		return nil, 0, fmt.Errorf("querying inventory version: %w", err)
	}

	products, err := r.findAll(ctx, tx)
	if err != nil {
		return nil, 0, err
	}

	return products, version, nil
}

// ReplaceAll swaps the stored product set for products, provided nobody
// replaced it since version was read.
func (r *SQLRepository) ReplaceAll(ctx context.Context, tx *sql.Tx, products []domain.Product, version int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE inventory_version SET version = version + 1 WHERE id = 1 AND version = ?`, version)
	if err != nil {
		return fmt.Errorf("bumping inventory version: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clearing products: %w", err)
	}

	if len(products) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (id, position, name, price, stock, is_ingredient, unit, is_visible, recipe)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing product insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range products {
		recipe, err := encodeRecipe(p.Recipe)
		if err != nil {
			return fmt.Errorf("encoding recipe of product %d: %w", p.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			p.ID, i, p.Name, p.Price.StringFixed(2), p.Stock, p.IsIngredient, p.Unit, p.IsVisible, recipe,
		)
		if err != nil {
			return fmt.Errorf("inserting product %d: %w", p.ID, err)
		}
	}

	return nil
}

// findAll loads every product. A recipe that does not decode is dropped with
// a warning and the product loads as a simple one; the next write stores it
// without the recipe.
func (r *SQLRepository) findAll(ctx context.Context, q queryer) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY position, id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := r.scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

func (r *SQLRepository) scanProduct(rows *sql.Rows) (*domain.Product, error) {
	var p domain.Product
	var recipe sql.NullString

	err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.IsIngredient, &p.Unit, &p.IsVisible, &recipe)
	if err != nil {
		return nil, err
	}

	if recipe.Valid && recipe.String != "" {
		var decoded domain.Recipe
		if err := json.Unmarshal([]byte(recipe.String), &decoded); err != nil {
			r.logger.Warn("unreadable recipe dropped",
				zap.Int64("productId", p.ID),
				zap.String("name", p.Name),
				zap.Error(err),
			)
			return &p, nil
		}
		p.Recipe = decoded
	}

	return &p, nil
}

func encodeRecipe(r domain.Recipe) (sql.NullString, error) {
	if len(r) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
