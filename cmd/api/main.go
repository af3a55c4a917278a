package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/massanostra/pizzeria-backend/api/routes"
	"github.com/massanostra/pizzeria-backend/internal/catalog"
	"github.com/massanostra/pizzeria-backend/internal/notify"
	"github.com/massanostra/pizzeria-backend/internal/orders"
	"github.com/massanostra/pizzeria-backend/internal/payments"
	"github.com/massanostra/pizzeria-backend/internal/pricing"
	"github.com/massanostra/pizzeria-backend/internal/receipts"
	providerwebhook "github.com/massanostra/pizzeria-backend/internal/webhooks/provider"
	"github.com/massanostra/pizzeria-backend/pkg/config"
	"github.com/massanostra/pizzeria-backend/pkg/db"
	"github.com/massanostra/pizzeria-backend/pkg/logger"
	"github.com/massanostra/pizzeria-backend/pkg/metrics"
	"github.com/massanostra/pizzeria-backend/pkg/migrate"
	"github.com/massanostra/pizzeria-backend/pkg/pixgateway"
	"github.com/massanostra/pizzeria-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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
	orderMetrics := metrics.NewOrderMetrics(registry)

	gateway, err := pixgateway.NewClient(context.Background(), cfg.Pix, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create pix gateway client", err)
		os.Exit(1)
	}

	hub := notify.NewHub()
	notifySvc, err := notify.NewService(hub, notify.NewLogMailer(logg), cfg.Email, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notify service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	calculator, err := pricing.NewCalculator(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing calculator", err)
		os.Exit(1)
	}

	receiptsSvc, err := receipts.NewService(receipts.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipts service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersSvc, err := orders.NewService(
		dbClient,
		ordersRepo,
		catalogRepo,
		calculator,
		notifySvc,
		redisClient,
		receiptsSvc,
		orderMetrics,
		cfg.Orders,
		cfg.TokenLimit,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsRepo := payments.NewRepository(dbClient.DB())
	paymentsSvc, err := payments.NewService(paymentsRepo, ordersRepo, gateway)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	webhookSvc, err := providerwebhook.NewService(providerwebhook.ServiceParams{
		Payments:   paymentsRepo,
		Orders:     ordersSvc,
		Notifier:   notifySvc,
		Deliveries: redisClient,
		Metrics:    orderMetrics,
		Logger:     logg,
		PixConfig:  cfg.Pix,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment webhook service", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			hub,
			ordersSvc,
			paymentsSvc,
			webhookSvc,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
