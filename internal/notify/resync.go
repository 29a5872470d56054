package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"foodstand/internal/domain"
)

type ProductSource interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
}

// Resync republishes the full view on a schedule so terminals that missed an
// event catch up.
type Resync struct {
	source      ProductSource
	broadcaster *Broadcaster
	sched       *cron.Cron
	timeout     time.Duration
	logger      *zap.Logger
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func NewResync(source ProductSource, broadcaster *Broadcaster, schedule string, loc *time.Location, logger *zap.Logger) (*Resync, error) {
	if loc == nil {
		loc = time.Local
	}
	r := &Resync{
		source:      source,
		broadcaster: broadcaster,
		sched:       cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		timeout:     10 * time.Second,
		logger:      logger,
	}

	if _, err := r.sched.AddFunc(schedule, func() { r.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("scheduling resync %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Resync) Start() {
	r.sched.Start()
}

// Stop halts the schedule and waits for a running job to finish or ctx to end.
func (r *Resync) Stop(ctx context.Context) {
	select {
	case <-r.sched.Stop().Done():
	case <-ctx.Done():
	}
}

func (r *Resync) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	products, err := r.source.FindAll(ctx)
	if err != nil {
		r.logger.Error("resync failed to read products", zap.Error(err))
		return
	}

	r.broadcaster.ProductsChanged(ctx, products)
	r.logger.Debug("resync published", zap.Int("products", len(products)))
}
