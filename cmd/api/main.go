package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/database"
	"restaurant-checkout/internal/infrastructure/messaging"
	"restaurant-checkout/internal/infrastructure/payment"
	"restaurant-checkout/internal/repo"
	"restaurant-checkout/internal/server"
	"restaurant-checkout/internal/service"
)

func gracefulShutdown(apiServer *http.Server, timeout time.Duration, logger *slog.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}

	logger.Info("server exiting")
	done <- true
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.Database.DSN(), cfg.Database.Database, logger)
	if err != nil {
		logger.Error("database open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		logger.Error("migration failed", "err", err)
		os.Exit(1)
	}

	var gateway payment.Gateway
	if cfg.PaymentGateway == config.GatewayMock {
		logger.Warn("PAYMENT_GATEWAY=mock, checkout URLs will not take real payments")
		gateway = payment.NewMockGateway(cfg.StripeWebhookSecret, 0)
	} else {
		gateway = payment.NewStripeGateway(cfg.StripeAPIKey, cfg.StripeWebhookSecret)
	}

	var notifier messaging.Notifier = messaging.NoopNotifier{}
	if cfg.RabbitURL != "" {
		rn, err := messaging.NewRabbitNotifier(cfg.RabbitURL, cfg.RabbitExchange, logger)
		if err != nil {
			logger.Error("rabbitmq connect failed", "err", err)
			os.Exit(1)
		}
		notifier = rn
	}
	defer notifier.Close()

	conn := db.DB()
	orderRepo := repo.NewOrderRepo(conn)
	restaurantRepo := repo.NewRestaurantRepo(conn)
	paymentRepo := repo.NewPaymentRepo(conn)

	apiServer := server.NewServer(server.Options{
		Port:          cfg.Port,
		CORSOrigins:   cfg.CORSOrigins,
		JWTSecret:     cfg.JWTSecret,
		CheckoutRPS:   cfg.CheckoutRateRPS,
		CheckoutBurst: cfg.CheckoutRateBurst,
		DB:            db,
		Checkout: service.NewCheckoutService(db, orderRepo, restaurantRepo, gateway, service.CheckoutConfig{
			FrontendURL: cfg.FrontendURL,
			Currency:    cfg.Currency,
		}, logger),
		Payments:    service.NewPaymentService(db, orderRepo, paymentRepo, gateway, notifier, logger),
		Fulfillment: service.NewFulfillmentService(db, orderRepo, restaurantRepo, notifier, logger),
		Logger:      logger,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, cfg.ShutdownTimeout, logger, done)

	logger.Info("server listening", "addr", apiServer.Addr)
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server error", "err", err)
		os.Exit(1)
	}

	<-done
}
