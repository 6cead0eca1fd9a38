package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path"
	"time"

	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/database"
	"restaurant-checkout/internal/domain"
	"restaurant-checkout/internal/infrastructure/messaging"
	"restaurant-checkout/internal/infrastructure/payment"
	"restaurant-checkout/internal/repo"
	"restaurant-checkout/internal/service"

	"github.com/google/uuid"
)

func main() {
	orders := flag.Int("orders", 20, "number of checkouts to run")
	chaos := flag.Int("chaos", 20, "percent of checkout sessions the mock provider fails")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := database.New(cfg.Database.DSN(), cfg.Database.Database, logger)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	conn := db.DB()
	orderRepo := repo.NewOrderRepo(conn)
	restaurantRepo := repo.NewRestaurantRepo(conn)
	paymentRepo := repo.NewPaymentRepo(conn)

	secret := cfg.StripeWebhookSecret
	if secret == "" {
		secret = "whsec_simulate"
	}
	gateway := payment.NewMockGateway(secret, *chaos)

	var notifier messaging.Notifier = messaging.NoopNotifier{}
	if cfg.RabbitURL != "" {
		if rn, err := messaging.NewRabbitNotifier(cfg.RabbitURL, cfg.RabbitExchange, logger); err != nil {
			log.Printf("rabbitmq unavailable, notifications off: %v", err)
		} else {
			notifier = rn
		}
	}
	defer notifier.Close()

	checkout := service.NewCheckoutService(db, orderRepo, restaurantRepo, gateway, service.CheckoutConfig{
		FrontendURL: cfg.FrontendURL,
		Currency:    cfg.Currency,
	}, logger)
	payments := service.NewPaymentService(db, orderRepo, paymentRepo, gateway, notifier, logger)

	restaurant := &domain.Restaurant{
		ID:                    uuid.New(),
		OwnerID:               "sim-owner-" + uuid.NewString(),
		Name:                  "Simulation Diner",
		City:                  "Toronto",
		Country:               "Canada",
		DeliveryPrice:         300,
		EstimatedDeliveryTime: 30,
		Cuisines:              []string{"Burgers"},
		MenuItems: []domain.MenuItem{
			{ID: "m1", Name: "Burger", Price: 500},
			{ID: "m2", Name: "Fries", Price: 250},
		},
		LastUpdate: time.Now(),
	}
	err = db.WithTx(ctx, func(tx database.DBTX) error {
		return restaurantRepo.CreateRestaurant(ctx, tx, restaurant)
	})
	if err != nil {
		log.Fatalf("seed restaurant: %v", err)
	}

	fmt.Printf("--- STARTING SIMULATION (%d ORDERS) ---\n", *orders)
	for i := 0; i < *orders; i++ {
		req := service.CheckoutRequest{
			CartItems: []service.CartItem{
				{MenuItemID: "m1", Quantity: "2"},
				{MenuItemID: "m2", Quantity: fmt.Sprint(i%3 + 1)},
			},
			DeliveryDetails: domain.DeliveryDetails{
				Email:        fmt.Sprintf("buyer%d@example.com", i),
				Name:         fmt.Sprintf("Buyer %d", i),
				AddressLine1: "1 King St",
				City:         "Toronto",
			},
			RestaurantID: restaurant.ID.String(),
		}

		fmt.Printf("[%d] Checkout ... ", i+1)
		sent := len(gateway.Requests())
		url, err := checkout.CreateCheckout(ctx, req, fmt.Sprintf("sim-buyer-%d", i))

		orderID, ok := sentOrderID(sent, gateway.Requests())
		if !ok {
			fmt.Printf("FAILED before provider: %v\n", err)
			fmt.Println("---------------------------------------------------")
			continue
		}

		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
		} else {
			fmt.Printf("SUCCESS\n")
			payload, sig, err := gateway.CompleteSession(path.Base(url))
			if err != nil {
				log.Printf("complete session: %v", err)
				continue
			}
			// the provider may deliver the same event more than once
			for attempt := 1; attempt <= 2; attempt++ {
				outcome, err := payments.HandleCallback(ctx, payload, sig)
				fmt.Printf("    -> delivery %d: outcome=%s err=%v\n", attempt, outcome, err)
			}
		}

		fresh, err := orderRepo.FindById(ctx, orderID)
		if err != nil || fresh == nil {
			fmt.Printf("    -> DB lookup failed: %v\n", err)
			continue
		}
		total := "none"
		if fresh.TotalAmount != nil {
			total = fmt.Sprint(*fresh.TotalAmount)
		}
		fmt.Printf("    -> DB Status: %s, total: %s\n", fresh.Status, total)
		fmt.Println("---------------------------------------------------")
		time.Sleep(100 * time.Millisecond)
	}
}

// sentOrderID returns the order id of the session request made after the
// first sent requests. An order exists only if the checkout got as far as
// the provider.
func sentOrderID(sent int, reqs []payment.SessionRequest) (uuid.UUID, bool) {
	if len(reqs) <= sent {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(reqs[len(reqs)-1].Metadata["orderId"])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
