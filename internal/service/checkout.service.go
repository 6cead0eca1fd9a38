package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"restaurant-checkout/internal/database"
	"restaurant-checkout/internal/domain"
	"restaurant-checkout/internal/infrastructure/payment"
	"restaurant-checkout/internal/repo"

	"github.com/google/uuid"
)

type CheckoutRequest struct {
	CartItems       []CartItem             `json:"cartItems" binding:"required,min=1,dive"`
	DeliveryDetails domain.DeliveryDetails `json:"deliveryDetails"`
	RestaurantID    string                 `json:"restaurantId" binding:"required"`
}

type CheckoutConfig struct {
	FrontendURL string
	Currency    string
}

type CheckoutService interface {
	// CreateCheckout persists a placed order and returns the provider's
	// hosted checkout URL for it.
	CreateCheckout(ctx context.Context, req CheckoutRequest, accountID string) (string, error)
}

type checkoutService struct {
	db             database.Transactor
	orderRepo      repo.OrderRepo
	restaurantRepo repo.RestaurantRepo
	gateway        payment.Gateway
	cfg            CheckoutConfig
	logger         *slog.Logger
	now            func() time.Time
}

func NewCheckoutService(
	db database.Transactor,
	orderRepo repo.OrderRepo,
	restaurantRepo repo.RestaurantRepo,
	gateway payment.Gateway,
	cfg CheckoutConfig,
	logger *slog.Logger,
) CheckoutService {
	return &checkoutService{
		db:             db,
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		gateway:        gateway,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *checkoutService) CreateCheckout(ctx context.Context, req CheckoutRequest, accountID string) (string, error) {
	restaurantID, err := uuid.Parse(req.RestaurantID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrRestaurantNotFound, req.RestaurantID)
	}

	restaurant, err := s.restaurantRepo.FindById(ctx, restaurantID)
	if err != nil {
		return "", fmt.Errorf("%w: load restaurant: %w", domain.ErrStoreUnavailable, err)
	}
	if restaurant == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrRestaurantNotFound, restaurantID)
	}

	lines, err := ResolveLineItems(req.CartItems, restaurant.MenuItems)
	if err != nil {
		return "", err
	}
	subtotal, err := Subtotal(lines)
	if err != nil {
		return "", err
	}
	if _, ok := addAmount(subtotal, restaurant.DeliveryPrice); !ok {
		return "", fmt.Errorf("%w: total with delivery overflows", domain.ErrInvalidQuantity)
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		RestaurantID:    restaurant.ID,
		UserID:          accountID,
		DeliveryDetails: req.DeliveryDetails,
		CartItems:       lines,
		Status:          domain.OrderPlaced,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// the order must exist before the provider sees its id
	err = s.db.WithTx(ctx, func(tx database.DBTX) error {
		return s.orderRepo.CreateOrder(ctx, tx, order)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, s.sessionRequest(order, restaurant))
	if err != nil {
		s.logger.Error("checkout session failed",
			"order_id", order.ID,
			"restaurant_id", restaurant.ID,
			"err", err,
		)
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			return "", err
		}
		return "", &domain.ProviderError{Message: err.Error(), Err: err}
	}
	if session.URL == "" {
		s.logger.Error("checkout session without url",
			"order_id", order.ID,
			"session_id", session.ID,
		)
		return "", fmt.Errorf("%w: session %s", domain.ErrCheckoutSessionFailed, session.ID)
	}

	s.logger.Info("checkout session created",
		"order_id", order.ID,
		"restaurant_id", restaurant.ID,
		"session_id", session.ID,
		"subtotal", subtotal,
		"delivery_price", restaurant.DeliveryPrice,
	)
	return session.URL, nil
}

func (s *checkoutService) sessionRequest(order *domain.Order, restaurant *domain.Restaurant) payment.SessionRequest {
	items := make([]payment.LineItem, 0, len(order.CartItems))
	for _, l := range order.CartItems {
		items = append(items, payment.LineItem{
			Name:       l.Name,
			UnitAmount: l.UnitPrice,
			Quantity:   l.Quantity,
		})
	}

	return payment.SessionRequest{
		Currency:    s.cfg.Currency,
		LineItems:   items,
		DeliveryFee: restaurant.DeliveryPrice,
		Metadata: map[string]string{
			"orderId":      order.ID.String(),
			"restaurantId": restaurant.ID.String(),
		},
		SuccessURL: s.cfg.FrontendURL + "/order-status?success=true",
		CancelURL:  fmt.Sprintf("%s/detail/%s?cancelled=true", s.cfg.FrontendURL, restaurant.ID),
	}
}
