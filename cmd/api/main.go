package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lifeimang/dfresh/api/routes"
	cartsvc "github.com/lifeimang/dfresh/internal/cart"
	"github.com/lifeimang/dfresh/internal/catalog"
	"github.com/lifeimang/dfresh/pkg/config"
	"github.com/lifeimang/dfresh/pkg/db"
	"github.com/lifeimang/dfresh/pkg/logger"
	"github.com/lifeimang/dfresh/pkg/metrics"
	"github.com/lifeimang/dfresh/pkg/migrate"
	"github.com/lifeimang/dfresh/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	fatalOn(ctx, logg, "failed to load config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	fatalOn(ctx, logg, "failed to bootstrap database", err)
	defer closeQuietly(ctx, logg, "database", dbClient.Close)

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	fatalOn(ctx, logg, "failed to run dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	fatalOn(ctx, logg, "failed to bootstrap redis", err)
	defer closeQuietly(ctx, logg, "redis", redisClient.Close)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	fatalOn(ctx, logg, "failed to create catalog service", err)

	cartStore := cartsvc.NewStore(redisClient, cfg.Cart.RecordTTL)
	cartService, err := cartsvc.NewService(cartStore, catalogService)
	fatalOn(ctx, logg, "failed to create cart service", err)

	cartMetrics := metrics.NewCartMetrics(prometheus.DefaultRegisterer)

	// PaaS platforms inject PORT; the config value is the fallback.
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, catalogService, cartService, cartMetrics),
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatalOn(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, msg, err)
	os.Exit(1)
}

func closeQuietly(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+name, err)
	}
}
