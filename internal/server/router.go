package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"foodstand/internal/commons"
	notifyctrl "foodstand/internal/notify/controller"
	orderctrl "foodstand/internal/order/controller"
	productctrl "foodstand/internal/product/controller"
	salesctrl "foodstand/internal/sales/controller"
)

type Controllers struct {
	Products *productctrl.ProductsController
	Orders   *orderctrl.OrderController
	Sales    *salesctrl.SalesController
	Events   *notifyctrl.EventsController
	Health   http.HandlerFunc
}

func NewRouter(c Controllers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(commons.TraceMiddleware)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", c.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", c.Products.List)
			r.Post("/", c.Products.Create)
			r.Put("/{id}", c.Products.Update)
			r.Delete("/{id}", c.Products.Delete)
			r.Post("/{id}/visibility", c.Products.ToggleVisibility)
			r.Post("/{id}/restock", c.Products.Restock)
		})

		r.Post("/order", c.Orders.Submit)

		r.Get("/sales", c.Sales.List)
		r.Get("/sales/summary", c.Sales.Summary)

		r.Get("/events", c.Events.Stream)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("traceId", commons.TraceID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remoteAddr", r.RemoteAddr),
			)
		})
	}
}
