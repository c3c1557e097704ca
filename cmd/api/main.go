package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/streamtips/streamtips-backend/api/routes"
	"github.com/streamtips/streamtips-backend/internal/fees"
	"github.com/streamtips/streamtips-backend/internal/payees"
	"github.com/streamtips/streamtips-backend/internal/tips"
	"github.com/streamtips/streamtips-backend/internal/transactions"
	stripewebhook "github.com/streamtips/streamtips-backend/internal/webhooks/stripe"
	"github.com/streamtips/streamtips-backend/pkg/config"
	"github.com/streamtips/streamtips-backend/pkg/db"
	"github.com/streamtips/streamtips-backend/pkg/logger"
	"github.com/streamtips/streamtips-backend/pkg/metrics"
	"github.com/streamtips/streamtips-backend/pkg/migrate"
	"github.com/streamtips/streamtips-backend/pkg/redis"
	pkgstripe "github.com/streamtips/streamtips-backend/pkg/stripe"
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

	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}

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

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to initialize stripe", err)
		os.Exit(1)
	}

	calculator, err := fees.NewCalculator(cfg.Fees)
	if err != nil {
		logg.Error(context.Background(), "invalid fee model", err)
		os.Exit(1)
	}

	payeeRepo := payees.NewRepository(dbClient.DB())
	payeeService, err := payees.NewService(payeeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create payee service", err)
		os.Exit(1)
	}

	txnService, err := transactions.NewService(transactions.ServiceParams{
		Repo:       transactions.NewRepository(dbClient.DB()),
		PayeeRepo:  payeeRepo,
		Calculator: calculator,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create transaction service", err)
		os.Exit(1)
	}

	tipService, err := tips.NewService(tips.ServiceParams{
		Transactions: txnService,
		Payees:       payeeService,
		Calculator:   calculator,
		Stripe:       stripeClient,
		Currency:     cfg.Fees.Currency,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tip service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Transactions: txnService,
		FeeLookup:    stripeClient,
		Metrics:      webhookMetrics,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
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
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Payees:       payeeService,
			Tips:         tipService,
			Transactions: txnService,
			StripeClient: stripeClient,
			Webhook:      webhookService,
			WebhookGuard: webhookGuard,
			Metrics:      registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
