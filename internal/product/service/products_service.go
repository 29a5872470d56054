package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"foodstand/internal/domain"
	"foodstand/internal/errors"
	"foodstand/internal/inventory"
	"foodstand/internal/stock"
)

type UnitOfWork interface {
	Mutate(ctx context.Context, op string, fn inventory.MutateFunc) ([]domain.Product, error)
	Snapshot(ctx context.Context) ([]domain.Product, error)
}

type Broadcaster interface {
	ProductsChanged(ctx context.Context, products []domain.Product) []domain.ProductView
	ProductRemoved(ctx context.Context, removed domain.Product)
}

// ProductService runs the product lifecycle. Every change goes through the
// unit of work and is broadcast once committed.
type ProductService struct {
	uow         UnitOfWork
	broadcaster Broadcaster
	resolver    *stock.Resolver
	logger      *zap.Logger
	now         func() time.Time
}

func NewProductService(uow UnitOfWork, broadcaster Broadcaster, resolver *stock.Resolver, logger *zap.Logger) *ProductService {
	return &ProductService{
		uow:         uow,
		broadcaster: broadcaster,
		resolver:    resolver,
		logger:      logger,
		now:         time.Now,
	}
}

// List resolves the current store. A store that cannot be read lists as
// empty.
func (s *ProductService) List(ctx context.Context) ([]domain.ProductView, error) {
	products, err := s.uow.Snapshot(ctx)
	if err != nil {
		s.logger.Error("reading products failed, listing none", zap.Error(err))
		return []domain.ProductView{}, nil
	}
	return s.resolver.ResolveAll(products), nil
}

// Create appends p to the store. A zero id is minted from the clock.
func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.ProductView, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Unit == "" {
		p.Unit = domain.DefaultUnit
	}

	var id int64
	products, err := s.uow.Mutate(ctx, "product.create", func(ctx context.Context, tx *sql.Tx, products []domain.Product) ([]domain.Product, error) {
		created := p.Clone()
		if created.ID == 0 {
			created.ID = s.mintID(products)
		} else if _, exists := domain.IndexOf(products, created.ID); exists {
			return nil, errors.NewConflictError(fmt.Sprintf("product with id %d already exists", created.ID))
		}
		id = created.ID
		return append(products, created), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product created", zap.Int64("productId", id), zap.String("name", p.Name))
	s.warnUnresolved(products, id)
	return s.publishAndFind(ctx, products, id), nil
}

// Update overwrites only the fields present in patch.
func (s *ProductService) Update(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.ProductView, error) {
	products, err := s.mutateOne(ctx, "product.update", id, func(p domain.Product) domain.Product {
		return p.Apply(patch)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product updated", zap.Int64("productId", id))
	if patch.Recipe != nil {
		s.warnUnresolved(products, id)
	}
	return s.publishAndFind(ctx, products, id), nil
}

func (s *ProductService) ToggleVisibility(ctx context.Context, id int64) (*domain.ProductView, error) {
	products, err := s.mutateOne(ctx, "product.visibility", id, func(p domain.Product) domain.Product {
		p.IsVisible = !p.IsVisible
		return p
	})
	if err != nil {
		return nil, err
	}

	view := s.publishAndFind(ctx, products, id)
	s.logger.Info("product visibility toggled", zap.Int64("productId", id), zap.Bool("isVisible", view.IsVisible))
	return view, nil
}

// Restock adds delta, which may be negative, to the raw stock of a product.
func (s *ProductService) Restock(ctx context.Context, id int64, delta int) (*domain.ProductView, error) {
	products, err := s.mutateOne(ctx, "product.restock", id, func(p domain.Product) domain.Product {
		p.Stock += delta
		return p
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product restocked", zap.Int64("productId", id), zap.Int("delta", delta))
	return s.publishAndFind(ctx, products, id), nil
}

// Delete removes the product. Recipes naming it are left as they are and
// resolve to zero availability from then on.
func (s *ProductService) Delete(ctx context.Context, id int64) (*domain.Product, error) {
	var removed domain.Product

	products, err := s.uow.Mutate(ctx, "product.delete", func(ctx context.Context, tx *sql.Tx, products []domain.Product) ([]domain.Product, error) {
		idx, ok := domain.IndexOf(products, id)
		if !ok {
			return nil, notFound(id)
		}
		removed = products[idx]
		return append(products[:idx:idx], products[idx+1:]...), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product deleted", zap.Int64("productId", id), zap.String("name", removed.Name))
	s.broadcaster.ProductRemoved(ctx, removed)
	s.broadcaster.ProductsChanged(ctx, products)
	return &removed, nil
}

func (s *ProductService) mutateOne(ctx context.Context, op string, id int64, change func(domain.Product) domain.Product) ([]domain.Product, error) {
	return s.uow.Mutate(ctx, op, func(ctx context.Context, tx *sql.Tx, products []domain.Product) ([]domain.Product, error) {
		idx, ok := domain.IndexOf(products, id)
		if !ok {
			return nil, notFound(id)
		}
		products[idx] = change(products[idx])
		return products, nil
	})
}

func (s *ProductService) publishAndFind(ctx context.Context, products []domain.Product, id int64) *domain.ProductView {
	views := s.broadcaster.ProductsChanged(ctx, products)
	for i := range views {
		if views[i].ID == id {
			return &views[i]
		}
	}
	return nil
}

// warnUnresolved logs recipe entries of product id that match no product or
// carry an unusable quantity. They are accepted as written.
func (s *ProductService) warnUnresolved(products []domain.Product, id int64) {
	idx, ok := domain.IndexOf(products, id)
	if !ok {
		return
	}
	for _, w := range s.resolver.Diagnose(products[idx], products) {
		s.logger.Warn("recipe entry does not resolve",
			zap.Int64("productId", w.ProductID),
			zap.String("key", w.Key),
			zap.String("reason", string(w.Reason)),
		)
	}
}

func (s *ProductService) mintID(products []domain.Product) int64 {
	id := s.now().UnixMilli()
	for {
		if _, taken := domain.IndexOf(products, id); !taken {
			return id
		}
		id++
	}
}

func notFound(id int64) error {
	return errors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
}
