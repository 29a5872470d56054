package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"foodstand/internal/commons"
	"foodstand/internal/config"
	"foodstand/internal/fulfillment"
	"foodstand/internal/infrastructure/logger"
	"foodstand/internal/infrastructure/mysql"
	"foodstand/internal/infrastructure/redis"
	"foodstand/internal/infrastructure/schema"
	"foodstand/internal/infrastructure/sqlite"
	"foodstand/internal/inventory"
	"foodstand/internal/notify"
	notifyctrl "foodstand/internal/notify/controller"
	"foodstand/internal/order"
	"foodstand/internal/product"
	productrepo "foodstand/internal/product/repository"
	"foodstand/internal/sales"
	"foodstand/internal/server"
	"foodstand/internal/stock"
)

func main() {
	cfg, err := commons.LoadConfig("internal/config/config.yaml")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	// money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	db, err := openDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected", zap.String("driver", cfg.Database.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := schema.Ensure(ctx, db, cfg.Database.Driver); err != nil {
		zapLogger.Fatal("preparing schema", zap.Error(err))
	}

	hub := notify.NewHub(cfg.Notify.SubscriberBuffer, zapLogger)

	var publisher notify.Publisher = hub
	var redisPinger server.RedisPinger
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		defer rdb.Close()
		zapLogger.Info("redis connected", zap.String("channel", cfg.Redis.Channel))

		publisher = notify.NewRedisPublisher(rdb, cfg.Redis.Channel)
		redisPinger = rdb

		relay := notify.NewRedisRelay(rdb, cfg.Redis.Channel, hub, zapLogger)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("redis relay stopped", zap.Error(err))
			}
		}()
	}

	location := cfg.Stand.Location()
	resolver := stock.NewResolver(cfg.Stand.OptionalTokens)
	broadcaster := notify.NewBroadcaster(resolver, publisher, zapLogger)

	productRepo := productrepo.NewSQLRepository(db, zapLogger)
	uow := inventory.NewUnitOfWork(db, productRepo, zapLogger, cfg.Order.TxTimeout, cfg.Order.MaxRetryAttempts)
	engine := fulfillment.NewEngine(resolver, location)

	productCtrl, productSvc := product.NewModule(uow, broadcaster, resolver, zapLogger)
	salesCtrl, salesRepo := sales.NewModule(db, location, zapLogger)
	orderCtrl := order.NewModule(uow, engine, salesRepo, broadcaster, cfg.Order, zapLogger)
	eventsCtrl := notifyctrl.NewEventsController(hub, productSvc, zapLogger)

	resync, err := notify.NewResync(productRepo, broadcaster, cfg.Notify.ResyncSchedule, location, zapLogger)
	if err != nil {
		zapLogger.Fatal("scheduling resync", zap.Error(err))
	}
	resync.RunOnce(ctx)
	resync.Start()

	router := server.NewRouter(server.Controllers{
		Products: productCtrl,
		Orders:   orderCtrl,
		Sales:    salesCtrl,
		Events:   eventsCtrl,
		Health:   server.Health(db, redisPinger, zapLogger),
	}, zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resync.Stop(shutdownCtx)
	// open event streams only end when their subscription closes
	hub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return mysql.NewConnection(cfg)
	case config.DriverSQLite:
		return sqlite.NewConnection(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
