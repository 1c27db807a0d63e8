package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go-marketplace/controllers"
	"go-marketplace/middleware"
	"go-marketplace/routes"
	"go-marketplace/services"
	"go-marketplace/store"
	"go-marketplace/utils"

	"github.com/gorilla/mux"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := utils.InitLogger(cfg.App.Name, cfg.App.LogLevel, cfg.App.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		catalog store.Catalog
		orders  store.OrderRepository
	)
	if cfg.Mongo.URI != "" {
		client, err := utils.ConnectDB(cfg.Mongo.URI)
		if err != nil {
			logger.Error("mongo_connect_failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error("mongo_disconnect_failed", "error", err)
			}
		}()
		catalog = store.NewMongoCatalog(client, cfg.Mongo.Database)
		orders = store.NewMongoOrderRepository(client, cfg.Mongo.Database)
		logger.Info("store_selected", "backend", "mongo", "database", cfg.Mongo.Database)
	} else {
		catalog = store.NewMemoryCatalog()
		orders = store.NewMemoryOrderRepository()
		logger.Info("store_selected", "backend", "memory")
	}

	var idempotency store.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := utils.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			logger.Error("redis_connect_failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		idempotency = store.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	} else {
		idempotency = store.NewMemoryIdempotencyStore(cfg.Idempotency.TTL)
	}

	if cfg.Catalog.Seed {
		n, err := store.Seed(ctx, catalog, store.DefaultProducts())
		if err != nil {
			logger.Error("catalog_seed_failed", "error", err)
			os.Exit(1)
		}
		logger.Info("catalog_seeded", "products", n)
	}

	tolerance, _ := cfg.Tolerance()
	feeRate, _ := cfg.ServiceFeeRate()

	guard := services.NewPriceGuard(catalog, services.WithTolerance(tolerance), services.WithStrict(cfg.Pricing.StrictGuard))
	carts := services.NewCartManager(catalog)
	resolver := services.NewOrderResolver(catalog, guard, carts, services.WithServiceFeeRate(feeRate))

	signer := utils.NewReceiptSigner(cfg.Security.ReceiptSecret, cfg.Security.ReceiptTTL, cfg.App.Name)
	orderController := controllers.NewOrderController(resolver, orders, idempotency, signer, utils.NewEmailService(cfg))

	router := mux.NewRouter()
	routes.RegisterRoutes(router, routes.Controllers{
		Products: controllers.NewProductController(catalog),
		Carts:    controllers.NewCartController(carts, resolver, orderController),
		Orders:   orderController,
	}, middleware.NewDefenseKeyGate(cfg.Security.DefenseKeyHash), guard)

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("server_started", "addr", cfg.App.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	logger.Info("server_stopped")
}
