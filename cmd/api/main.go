package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/d2bmarket/d2b-backend/api/routes"
	"github.com/d2bmarket/d2b-backend/internal/manufacturers"
	"github.com/d2bmarket/d2b-backend/internal/notifications"
	"github.com/d2bmarket/d2b-backend/internal/orders"
	"github.com/d2bmarket/d2b-backend/internal/payments"
	"github.com/d2bmarket/d2b-backend/internal/products"
	"github.com/d2bmarket/d2b-backend/internal/reconcile"
	"github.com/d2bmarket/d2b-backend/internal/shipping"
	"github.com/d2bmarket/d2b-backend/pkg/config"
	"github.com/d2bmarket/d2b-backend/pkg/courier"
	"github.com/d2bmarket/d2b-backend/pkg/db"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
	"github.com/d2bmarket/d2b-backend/pkg/metrics"
	"github.com/d2bmarket/d2b-backend/pkg/migrate"
	"github.com/d2bmarket/d2b-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pipelineMetrics := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	ordersRepo := orders.NewRepository(dbClient.DB())
	manufacturersRepo := manufacturers.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	notifier, err := notifications.NewService(notificationsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	materializer, err := orders.NewMaterializer(orders.MaterializerParams{
		TransactionRunner: dbClient,
		Repo:              ordersRepo,
		Notifier:          notifier,
		Logger:            logg,
		AdvancePercent:    cfg.Payments.AdvancePercent,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order materializer", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Attempts:             payments.NewAttemptRepository(dbClient.DB()),
		Materializer:         materializer,
		OrdersRepo:           ordersRepo,
		Logger:               logg,
		Metrics:              pipelineMetrics,
		WebhookSecret:        cfg.Gateway.WebhookSecret,
		AllowPayloadRecovery: cfg.Payments.AllowPayloadRecovery,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	webhookGuard, err := payments.NewWebhookGuard(redisClient, cfg.Gateway.EventDedupeTTL, "payment-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	courierClient, err := courier.NewClient(cfg.Courier, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create courier client", err)
		os.Exit(1)
	}

	provisioner, err := shipping.NewProvisioner(shipping.ProvisionerParams{
		Courier:       courierClient,
		OrdersRepo:    ordersRepo,
		Manufacturers: manufacturersRepo,
		Products:      productsRepo,
		Logger:        logg,
		Metrics:       pipelineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shipment provisioner", err)
		os.Exit(1)
	}

	reconciler, err := reconcile.NewService(reconcile.ServiceParams{
		Repo:     ordersRepo,
		Courier:  courierClient,
		Notifier: notifier,
		Logger:   logg,
		Metrics:  pipelineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:            cfg,
			Logger:            logg,
			DB:                dbClient,
			Redis:             redisClient,
			PaymentsService:   paymentsService,
			WebhookGuard:      webhookGuard,
			Provisioner:       provisioner,
			Reconciler:        reconciler,
			OrdersRepo:        ordersRepo,
			NotificationsRepo: notificationsRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
