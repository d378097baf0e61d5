package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pluginbazaar/pluginbazaar-backend/api/routes"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/catalog"
	"github.com/pluginbazaar/pluginbazaar-backend/internal/cmslicenses"
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
	"github.com/pluginbazaar/pluginbazaar-backend/pkg/redis"
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

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	licenseRepo := licenses.NewRepository(dbClient.DB())
	licenseService, err := licenses.NewService(licenseRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create license service", err)
		os.Exit(1)
	}

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
	if err != nil {
		logg.Error(context.Background(), "failed to create provisioning engine", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
		catalogService,
		engine,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, catalogService, licenseService, ordersService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
