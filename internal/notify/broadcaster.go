package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"foodstand/internal/domain"
	"foodstand/internal/dto"
	"foodstand/internal/stock"
)

// Broadcaster recomputes the public view after a committed change and
// publishes it. Publish failures are logged, never returned: the change is
// already durable and terminals resync on reconnect.
type Broadcaster struct {
	resolver  *stock.Resolver
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewBroadcaster(resolver *stock.Resolver, publisher Publisher, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		resolver:  resolver,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ProductsChanged resolves products, publishes the view and returns it.
func (b *Broadcaster) ProductsChanged(ctx context.Context, products []domain.Product) []domain.ProductView {
	views := b.resolver.ResolveAll(products)

	b.publish(ctx, Event{
		Type:     EventProductsUpdated,
		Products: dto.FromViews(views),
		At:       b.now().UTC(),
	})

	return views
}

func (b *Broadcaster) ProductRemoved(ctx context.Context, removed domain.Product) {
	p := dto.FromProduct(removed)
	b.publish(ctx, Event{
		Type:    EventProductRemoved,
		Product: &p,
		At:      b.now().UTC(),
	})
}

func (b *Broadcaster) publish(ctx context.Context, event Event) {
	// the request may be over by the time a slow transport gets the event
	ctx = context.WithoutCancel(ctx)
	if err := b.publisher.Publish(ctx, event); err != nil {
		b.logger.Warn("failed to publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
