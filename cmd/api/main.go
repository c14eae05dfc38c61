package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ridegearhq/ridegear-backend/api/routes"
	"github.com/ridegearhq/ridegear-backend/internal/auth"
	"github.com/ridegearhq/ridegear-backend/internal/cart"
	"github.com/ridegearhq/ridegear-backend/internal/catalog"
	"github.com/ridegearhq/ridegear-backend/internal/notifications"
	"github.com/ridegearhq/ridegear-backend/internal/orders"
	"github.com/ridegearhq/ridegear-backend/internal/users"
	"github.com/ridegearhq/ridegear-backend/internal/wishlist"
	"github.com/ridegearhq/ridegear-backend/pkg/auth/session"
	"github.com/ridegearhq/ridegear-backend/pkg/config"
	"github.com/ridegearhq/ridegear-backend/pkg/db"
	"github.com/ridegearhq/ridegear-backend/pkg/logger"
	"github.com/ridegearhq/ridegear-backend/pkg/mailer"
	"github.com/ridegearhq/ridegear-backend/pkg/metrics"
	"github.com/ridegearhq/ridegear-backend/pkg/migrate"
	"github.com/ridegearhq/ridegear-backend/pkg/razorpay"
	"github.com/ridegearhq/ridegear-backend/pkg/redis"
	"github.com/ridegearhq/ridegear-backend/pkg/shiprocket"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	mailClient, err := mailer.NewClient(cfg.SMTP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mail client", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Sender: mailClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	razorpayClient, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}
	shiprocketClient, err := shiprocket.NewClient(context.Background(), cfg.Shiprocket, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shiprocket client", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		UserRepo:      userRepo,
		OTPRepo:       auth.NewOTPRepository(dbClient.DB()),
		Notifications: notificationsService,
		PasswordCfg:   cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:   catalogRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		ProductRepo: catalogRepo,
		Shipping:    cfg.Shipping,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistRepo: wishlist.NewRepository(dbClient.DB()),
		ProductRepo:  catalogRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:          ordersRepo,
		Tx:            dbClient,
		Catalog:       catalogRepo,
		Gateway:       razorpayClient,
		GatewayKeyID:  cfg.Razorpay.KeyID,
		Fulfillment:   shiprocketClient,
		Notifications: notificationsService,
		Shipping:      cfg.Shipping,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	usersService, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTP(registry)

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
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			SessionManager:  sessionManager,
			HTTPMetrics:     httpMetrics,
			Registry:        registry,
			AuthService:     authService,
			RegisterService: registerService,
			CatalogService:  catalogService,
			CartService:     cartService,
			WishlistService: wishlistService,
			OrdersService:   ordersService,
			UsersService:    usersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
