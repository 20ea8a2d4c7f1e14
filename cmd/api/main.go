package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/veloplane-b2b/orderdesk-backend/api/routes"
	"github.com/veloplane-b2b/orderdesk-backend/internal/audit"
	"github.com/veloplane-b2b/orderdesk-backend/internal/credit"
	"github.com/veloplane-b2b/orderdesk-backend/internal/deliveries"
	"github.com/veloplane-b2b/orderdesk-backend/internal/orders"
	"github.com/veloplane-b2b/orderdesk-backend/internal/payments"
	"github.com/veloplane-b2b/orderdesk-backend/internal/products"
	"github.com/veloplane-b2b/orderdesk-backend/internal/retailers"
	"github.com/veloplane-b2b/orderdesk-backend/internal/stock"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/config"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/db"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/metrics"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/migrate"
	"github.com/veloplane-b2b/orderdesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	conn := dbClient.DB()
	auditSvc := audit.NewService(audit.NewRepository(conn))
	stockSvc := stock.NewService()
	creditSvc := credit.NewService()

	retailersSvc := retailers.NewService(retailers.NewRepository(conn), dbClient, auditSvc, logg)
	productsSvc := products.NewService(products.NewRepository(conn), dbClient, stockSvc, auditSvc, logg)
	paymentsSvc := payments.NewService(payments.NewRepository(conn), dbClient, creditSvc, auditSvc)
	deliveriesSvc := deliveries.NewService(deliveries.NewRepository(conn), dbClient, auditSvc, logg)

	ordersSvc := orders.NewService(
		orders.NewRepository(conn),
		retailers.NewRepository(conn),
		products.NewRepository(conn),
		stockSvc,
		creditSvc,
		auditSvc,
		deliveriesSvc,
		dbClient,
		metrics.NewOrderEngineMetrics(registry),
		logg,
	)
	deliveriesSvc.BindOrderFinalizer(ordersSvc)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Retailers:  retailersSvc,
			Products:   productsSvc,
			Orders:     ordersSvc,
			Deliveries: deliveriesSvc,
			Payments:   paymentsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
