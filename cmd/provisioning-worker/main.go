package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pluginbazaar/pluginbazaar-backend/internal/catalog"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/cmslicenses"
	ordersconsumer "github.com/pluginbazaar/pluginbazaar-backend/internal/consumers/orders"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/discounts"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/licenses"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/orders"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/provisioning"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/config"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/db"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/logger"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/metrics"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/migrate"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/outbox"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/outbox/idempotency"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/pubsub"
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "provisioning-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "provisioning-worker"

	logg = logger.New(logger.Options{
		ServiceName: "provisioning-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database client", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.OrdersSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "orders subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), logg)
	requireResource(ctx, logg, "catalog service", err)

	licenseRepo := licenses.NewRepository(dbClient.DB())

	engine, err := provisioning.NewEngine(provisioning.EngineParams{
		Licenses:    licenseRepo,
		CmsLicenses: cmslicenses.NewRepository(dbClient.DB()),
		Discounts:   discounts.NewRepository(dbClient.DB()),
		Catalog:     catalogService,
		Tx:          dbClient,
		Outbox:      outboxService,
		Logger:      logg,
		Metrics:     metrics.NewProvisioningMetrics(prometheus.DefaultRegisterer),
	})
	requireResource(ctx, logg, "provisioning engine", err)

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
		catalogService,
		engine,
		logg,
	)
	requireResource(ctx, logg, "order service", err)

	consumer, err := ordersconsumer.NewConsumer(ordersService, subscription, manager, logg)
	requireResource(ctx, logg, "order consumer", err)

	service, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   pubsubClient,
		Consumer: consumer,
	})
	requireResource(ctx, logg, "worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "provisioning worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "provisioning worker failed", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "provisioning worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
