package inventory

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"foodstand/internal/domain"
	apperrors "foodstand/internal/errors"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Store reads and replaces the whole product set. ReplaceAll must fail with
// errors.ErrVersionConflict when version is no longer the latest.
type Store interface {
	ReadAllTx(ctx context.Context, tx *sql.Tx) ([]domain.Product, int64, error)
	ReplaceAll(ctx context.Context, tx *sql.Tx, products []domain.Product, version int64) error
}

// MutateFunc computes the next product set from the current one. Other
// writes that must commit with it go through tx. It can run more than once.
type MutateFunc func(ctx context.Context, tx *sql.Tx, products []domain.Product) ([]domain.Product, error)

type UnitOfWork struct {
	mu          sync.Mutex
	db          TransactionManager
	store       Store
	logger      *zap.Logger
	txTimeout   time.Duration
	maxAttempts int
	backoffs    []time.Duration
}

func NewUnitOfWork(db TransactionManager, store Store, logger *zap.Logger, txTimeout time.Duration, maxAttempts int) *UnitOfWork {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &UnitOfWork{
		db:          db,
		store:       store,
		logger:      logger,
		txTimeout:   txTimeout,
		maxAttempts: maxAttempts,
		backoffs:    []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond},
	}
}

// Mutate runs fn against the latest product set and persists its result in
// the same transaction. Version conflicts and lock errors are retried with
// jittered backoff; the committed product set is returned.
func (u *UnitOfWork) Mutate(ctx context.Context, op string, fn MutateFunc) ([]domain.Product, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		products, err := u.mutateOnce(ctx, fn)
		if err == nil {
			return products, nil
		}

		if !isRetryable(err) {
			return nil, err
		}

		if attempt == u.maxAttempts {
			u.logger.Error("inventory write gave up", zap.String("op", op), zap.Int("attempts", attempt), zap.Error(err))
			break
		}

		u.logger.Warn("inventory write conflicted, retrying", zap.String("op", op), zap.Int("attempt", attempt), zap.Int("maxAttempts", u.maxAttempts), zap.Error(err))
		if err := u.wait(ctx, attempt); err != nil {
			return nil, err
		}
	}

	return nil, apperrors.NewConflictError("inventory changed concurrently, retry the operation")
}

func (u *UnitOfWork) mutateOnce(ctx context.Context, fn MutateFunc) ([]domain.Product, error) {
	txCtx, cancel := u.withTimeout(ctx)
	defer cancel()

	tx, err := u.db.BeginTx(txCtx, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("beginning transaction", err)
	}
	defer tx.Rollback()

	current, version, err := u.store.ReadAllTx(txCtx, tx)
	if err != nil {
		return nil, wrapStoreError("reading inventory", err)
	}

	next, err := fn(txCtx, tx, domain.CloneAll(current))
	if err != nil {
		return nil, err
	}

	if err := u.store.ReplaceAll(txCtx, tx, next, version); err != nil {
		return nil, wrapStoreError("writing inventory", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapStoreError("committing inventory", err)
	}

	return next, nil
}

// Snapshot reads the product set under the same lock as writers.
func (u *UnitOfWork) Snapshot(ctx context.Context) ([]domain.Product, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	txCtx, cancel := u.withTimeout(ctx)
	defer cancel()

	tx, err := u.db.BeginTx(txCtx, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("beginning transaction", err)
	}
	defer tx.Rollback()

	products, _, err := u.store.ReadAllTx(txCtx, tx)
	if err != nil {
		return nil, apperrors.NewInternalError("reading inventory", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("closing read transaction", err)
	}
	return products, nil
}

func (u *UnitOfWork) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.txTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.txTimeout)
}

func (u *UnitOfWork) wait(ctx context.Context, attempt int) error {
	base := u.backoffs[min(attempt, len(u.backoffs)-1)]
	if base <= 0 {
		return ctx.Err()
	}

	// ±20% jitter
	d := time.Duration(float64(base) * (0.8 + rand.Float64()*0.4))

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// wrapStoreError keeps retryable errors recognisable and turns the rest into
// internal errors.
func wrapStoreError(message string, err error) error {
	if isRetryable(err) {
		return err
	}
	return apperrors.NewInternalError(message, err)
}

func isRetryable(err error) bool {
	if errors.Is(err, apperrors.ErrVersionConflict) {
		return true
	}
	return isLockError(err)
}

func isLockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}

	return false
}
