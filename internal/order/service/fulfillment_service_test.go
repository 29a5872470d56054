package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodstand/internal/domain"
	apperrors "foodstand/internal/errors"
	"foodstand/internal/fulfillment"
	"foodstand/internal/inventory"
	"foodstand/internal/notify"
	productrepo "foodstand/internal/product/repository"
	salesrepo "foodstand/internal/sales/repository"
	"foodstand/internal/stock"
	"foodstand/internal/testutil"
)

type memoryUnitOfWork struct {
	products []domain.Product
}

func (m *memoryUnitOfWork) Mutate(ctx context.Context, op string, fn inventory.MutateFunc) ([]domain.Product, error) {
	next, err := fn(ctx, nil, domain.CloneAll(m.products))
	if err != nil {
		return nil, err
	}
	m.products = next
	return domain.CloneAll(next), nil
}

type mockLedger struct {
	AppendFunc func(ctx context.Context, tx *sql.Tx, sale domain.Sale) error
}

func (m *mockLedger) Append(ctx context.Context, tx *sql.Tx, sale domain.Sale) error {
	return m.AppendFunc(ctx, tx, sale)
}

type mockBroadcaster struct {
	ProductsChangedFunc func(ctx context.Context, products []domain.Product) []domain.ProductView
}

func (m *mockBroadcaster) ProductsChanged(ctx context.Context, products []domain.Product) []domain.ProductView {
	return m.ProductsChangedFunc(ctx, products)
}

type harness struct {
	svc       *FulfillmentService
	uow       *memoryUnitOfWork
	sales     []domain.Sale
	published [][]domain.Product
}

func stand() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Saucisse", Stock: 10, IsIngredient: true},
		{ID: 2, Name: "Baguette", Stock: 4, IsIngredient: true},
		{ID: 3, Name: "Pain à hot-dog", Stock: 9, IsIngredient: true},
		{ID: 4, Name: "Hot-dog", Price: decimal.RequireFromString("4.50"), Recipe: domain.Recipe{
			{Key: "saucisse", Quantity: 1},
			{Key: "baguette", Quantity: 1},
			{Key: "pain à hot-dog", Quantity: 1},
		}},
		{ID: 5, Name: "Coca", Price: decimal.RequireFromString("2.50"), Stock: 24},
	}
}

func newHarness(allowOversell bool) *harness {
	h := &harness{uow: &memoryUnitOfWork{products: stand()}}
	ledger := &mockLedger{AppendFunc: func(ctx context.Context, tx *sql.Tx, sale domain.Sale) error {
		h.sales = append(h.sales, sale)
		return nil
	}}
	broadcaster := &mockBroadcaster{ProductsChangedFunc: func(ctx context.Context, products []domain.Product) []domain.ProductView {
		h.published = append(h.published, products)
		return nil
	}}
	engine := fulfillment.NewEngine(stock.NewResolver(nil), time.UTC)
	h.svc = NewFulfillmentService(h.uow, engine, ledger, broadcaster, zap.NewNop(), allowOversell)
	h.svc.now = func() time.Time { return time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestSubmit_RecordsSaleAndPublishes(t *testing.T) {
	h := newHarness(false)

	receipt, err := h.svc.Submit(context.Background(), fulfillment.Order{4: 2, 5: 1})
	require.NoError(t, err)

	assert.Equal(t, "11.5", receipt.Sale.TotalAmount.String())
	assert.Equal(t, "2026-07-14", receipt.Sale.Date)
	require.Len(t, h.sales, 1)
	assert.Equal(t, receipt.Sale.ID, h.sales[0].ID)

	assert.Equal(t, 8, h.uow.products[0].Stock)
	assert.Equal(t, 7, h.uow.products[2].Stock, "richest optional ingredient consumed")
	assert.Equal(t, 23, h.uow.products[4].Stock)

	require.Len(t, h.published, 1)
	assert.Equal(t, h.uow.products, h.published[0])
}

func TestSubmit_SkipsUnknownProducts(t *testing.T) {
	h := newHarness(false)

	receipt, err := h.svc.Submit(context.Background(), fulfillment.Order{5: 1, 42: 3})
	require.NoError(t, err)

	assert.Equal(t, []int64{42}, receipt.Report.SkippedProductIDs)
	assert.Len(t, receipt.Sale.Items, 1)
}

func TestSubmit_OnlyUnknownProducts(t *testing.T) {
	h := newHarness(false)

	_, err := h.svc.Submit(context.Background(), fulfillment.Order{42: 3})

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "order[42]", ve.Details[0].Field)
	assert.Empty(t, h.sales)
	assert.Empty(t, h.published)
}

func TestSubmit_EmptyOrder(t *testing.T) {
	h := newHarness(false)

	_, err := h.svc.Submit(context.Background(), fulfillment.Order{5: 0})

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
	assert.Empty(t, h.published)
}

func TestSubmit_RejectsOversell(t *testing.T) {
	h := newHarness(false)

	_, err := h.svc.Submit(context.Background(), fulfillment.Order{4: 10})

	se, ok := apperrors.IsInsufficientStockError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ShortageDetail{ProductID: 4, ProductName: "Hot-dog", Requested: 10, Available: 9}, se.Shortages[0])
	assert.Equal(t, stand(), h.uow.products, "stock untouched")
	assert.Empty(t, h.sales)
	assert.Empty(t, h.published)
}

func TestSubmit_AllowOversell(t *testing.T) {
	h := newHarness(true)

	_, err := h.svc.Submit(context.Background(), fulfillment.Order{5: 30})
	require.NoError(t, err)

	assert.Equal(t, -6, h.uow.products[4].Stock)
}

func TestSubmit_LedgerFailure(t *testing.T) {
	h := newHarness(false)
	h.svc.ledger = &mockLedger{AppendFunc: func(ctx context.Context, tx *sql.Tx, sale domain.Sale) error {
		return errors.New("disk full")
	}}

	_, err := h.svc.Submit(context.Background(), fulfillment.Order{5: 1})

	var internal *apperrors.InternalError
	assert.ErrorAs(t, err, &internal)
	assert.Equal(t, 24, h.uow.products[4].Stock)
	assert.Empty(t, h.published)
}

func newSQLiteService(t *testing.T, ledger SalesLedger) (*FulfillmentService, *inventory.UnitOfWork, *notify.Hub) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	resolver := stock.NewResolver(nil)
	hub := notify.NewHub(4, zap.NewNop())
	t.Cleanup(hub.Close)

	uow := inventory.NewUnitOfWork(db, productrepo.NewSQLRepository(db, zap.NewNop()), zap.NewNop(), time.Second, 3)
	_, err := uow.Mutate(context.Background(), "seed", func(ctx context.Context, tx *sql.Tx, _ []domain.Product) ([]domain.Product, error) {
		return stand(), nil
	})
	require.NoError(t, err)

	if ledger == nil {
		ledger = salesrepo.NewSQLRepository(db, zap.NewNop())
	}
	engine := fulfillment.NewEngine(resolver, time.UTC)
	broadcaster := notify.NewBroadcaster(resolver, hub, zap.NewNop())
	return NewFulfillmentService(uow, engine, ledger, broadcaster, zap.NewNop(), false), uow, hub
}

func TestSubmit_SQLite_CommitsStockAndSaleTogether(t *testing.T) {
	svc, uow, hub := newSQLiteService(t, nil)
	events, cancel := hub.Subscribe()
	defer cancel()

	receipt, err := svc.Submit(context.Background(), fulfillment.Order{4: 3})
	require.NoError(t, err)

	products, err := uow.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, products[0].Stock)
	assert.Equal(t, 6, products[2].Stock)

	ledger := svc.ledger.(*salesrepo.SQLRepository)
	sales, err := ledger.FindAll(context.Background(), domain.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, receipt.Sale.ID, sales[0].ID)
	assert.True(t, decimal.RequireFromString("13.5").Equal(sales[0].TotalAmount))

	select {
	case event := <-events:
		assert.Equal(t, notify.EventProductsUpdated, event.Type)
		assert.Equal(t, 6, event.Products[3].AvailableStock)
	case <-time.After(time.Second):
		t.Fatal("no products-updated event")
	}
}

func TestSubmit_SQLite_LedgerFailureRollsBackStock(t *testing.T) {
	failing := &mockLedger{AppendFunc: func(ctx context.Context, tx *sql.Tx, sale domain.Sale) error {
		return errors.New("constraint failed")
	}}
	svc, uow, _ := newSQLiteService(t, failing)

	_, err := svc.Submit(context.Background(), fulfillment.Order{5: 2})
	require.Error(t, err)

	products, err := uow.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 24, products[4].Stock)
}

func TestSubmit_SQLite_ConcurrentOrdersNeverOversell(t *testing.T) {
	svc, uow, _ := newSQLiteService(t, nil)
	const orders = 20

	var wg sync.WaitGroup
	errs := make([]error, orders)
	for i := range orders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(context.Background(), fulfillment.Order{4: 1})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		_, ok := apperrors.IsInsufficientStockError(err)
		assert.True(t, ok, "unexpected rejection: %v", err)
	}
	assert.Equal(t, 10, accepted, "ten sausages in stock")

	products, err := uow.Snapshot(context.Background())
	require.NoError(t, err)
	for _, p := range products {
		assert.GreaterOrEqual(t, p.Stock, 0, p.Name)
	}
	assert.Equal(t, 10-accepted, products[0].Stock)
	assert.Equal(t, accepted, (4-products[1].Stock)+(9-products[2].Stock), "one bread per hot-dog")

	ledger := svc.ledger.(*salesrepo.SQLRepository)
	sales, err := ledger.FindAll(context.Background(), domain.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, sales, accepted)
}
