package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mateovidal/storelane-backend/api/routes"
	authsvc "github.com/mateovidal/storelane-backend/internal/auth"
	cartsvc "github.com/mateovidal/storelane-backend/internal/cart"
	"github.com/mateovidal/storelane-backend/internal/catalog"
	"github.com/mateovidal/storelane-backend/internal/inventory"
	ordersvc "github.com/mateovidal/storelane-backend/internal/orders"
	paysvc "github.com/mateovidal/storelane-backend/internal/payments"
	usersvc "github.com/mateovidal/storelane-backend/internal/users"
	"github.com/mateovidal/storelane-backend/pkg/auth/session"
	"github.com/mateovidal/storelane-backend/pkg/config"
	"github.com/mateovidal/storelane-backend/pkg/db"
	"github.com/mateovidal/storelane-backend/pkg/logger"
	"github.com/mateovidal/storelane-backend/pkg/metrics"
	"github.com/mateovidal/storelane-backend/pkg/migrate"
	"github.com/mateovidal/storelane-backend/pkg/outbox"
	"github.com/mateovidal/storelane-backend/pkg/redis"
	"github.com/mateovidal/storelane-backend/pkg/square"
)

const shutdownTimeout = 15 * time.Second

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

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := usersvc.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	inventoryRepo := inventory.NewRepository(dbClient.DB())
	orderRepo := ordersvc.NewRepository(dbClient.DB())
	paymentRepo := paysvc.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	exitOnError(logg, "failed to create auth service", err)

	usersService, err := usersvc.NewService(userRepo)
	exitOnError(logg, "failed to create users service", err)

	catalogService, err := catalog.NewService(catalogRepo)
	exitOnError(logg, "failed to create catalog service", err)

	inventoryService, err := inventory.NewService(inventoryRepo)
	exitOnError(logg, "failed to create inventory service", err)

	cartStore, err := cartsvc.NewStore(redisClient, cartsvc.DefaultTTL)
	exitOnError(logg, "failed to create cart store", err)

	cartService, err := cartsvc.NewService(cartStore, catalogRepo, inventoryService)
	exitOnError(logg, "failed to create cart service", err)

	ordersService, err := ordersvc.NewService(ordersvc.ServiceParams{
		Repo:          orderRepo,
		Tx:            dbClient,
		Outbox:        outboxService,
		Stock:         inventoryService,
		Cart:          cartStore,
		PricingConfig: cfg.Pricing,
	})
	exitOnError(logg, "failed to create orders service", err)

	paymentService, err := paysvc.NewService(paysvc.ServiceParams{
		Repo:      paymentRepo,
		OrderRepo: orderRepo,
		Tx:        dbClient,
		Outbox:    outboxService,
		Gateway:   squareClient,
	})
	exitOnError(logg, "failed to create payments service", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	handler := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Registry:       registry,
		HTTPMetrics:    httpMetrics,
		SessionChecker: sessionManager,
		AuthService:    authService,
		UsersService:   usersService,
		CatalogService: catalogService,
		CartService:    cartService,
		OrdersService:  ordersService,
		PaymentService: paymentService,
	})

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
		Handler: handler,
	}

	go func() {
		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		<-sigCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func exitOnError(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
