package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"restaurant-checkout/internal/database"
	"restaurant-checkout/internal/domain"
	"restaurant-checkout/internal/infrastructure/messaging"
	"restaurant-checkout/internal/repo"

	"github.com/google/uuid"
)

type FulfillmentService interface {
	// UpdateStatus advances an order owned by accountID's restaurant to
	// the immediate next lifecycle status.
	UpdateStatus(ctx context.Context, orderID, status, accountID string) (*domain.Order, error)
	ListRestaurantOrders(ctx context.Context, accountID string) ([]domain.Order, error)
	ListMyOrders(ctx context.Context, accountID string) ([]domain.Order, error)
}

var errConflict = errors.New("status compare-and-set lost")

type fulfillmentService struct {
	db             database.Transactor
	orderRepo      repo.OrderRepo
	restaurantRepo repo.RestaurantRepo
	notifier       messaging.Notifier
	logger         *slog.Logger
	now            func() time.Time
}

func NewFulfillmentService(
	db database.Transactor,
	orderRepo repo.OrderRepo,
	restaurantRepo repo.RestaurantRepo,
	notifier messaging.Notifier,
	logger *slog.Logger,
) FulfillmentService {
	return &fulfillmentService{
		db:             db,
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *fulfillmentService) UpdateStatus(ctx context.Context, orderID, status, accountID string) (*domain.Order, error) {
	requested, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}

	order, err := s.orderRepo.FindById(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: load order: %w", domain.ErrStoreUnavailable, err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}

	restaurant, err := s.restaurantRepo.FindById(ctx, order.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: load restaurant: %w", domain.ErrStoreUnavailable, err)
	}
	if restaurant == nil || restaurant.OwnerID != accountID {
		s.logger.Warn("status update refused", "order_id", id, "account_id", accountID)
		return nil, domain.ErrUnauthorized
	}

	// placed -> paid belongs to payment reconciliation only
	next, ok := order.Status.Next()
	if order.Status == domain.OrderPlaced || !ok || next != requested {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, requested)
	}

	err = s.db.WithTx(ctx, func(tx database.DBTX) error {
		won, err := s.orderRepo.CompareAndSetStatus(ctx, tx, id, order.Status, requested, nil)
		if err != nil {
			return err
		}
		if !won {
			return errConflict
		}
		return nil
	})
	if errors.Is(err, errConflict) {
		return nil, fmt.Errorf("%w: %s", domain.ErrStatusConflict, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: update status: %w", domain.ErrStoreUnavailable, err)
	}

	now := s.now().UTC()
	previous := order.Status
	order.Status = requested
	order.UpdatedAt = now

	s.logger.Info("order status updated", "order_id", id, "from", previous, "to", requested)
	if err := s.notifier.NotifyStatusChanged(ctx, messaging.NewOrderStatusChanged(order, now)); err != nil {
		s.logger.Warn("status notification failed", "order_id", id, "err", err)
	}
	return order, nil
}

func (s *fulfillmentService) ListRestaurantOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	restaurant, err := s.restaurantRepo.FindByOwner(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: load restaurant: %w", domain.ErrStoreUnavailable, err)
	}
	if restaurant == nil {
		return nil, domain.ErrRestaurantNotFound
	}

	orders, err := s.orderRepo.FindByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return orders, nil
}

func (s *fulfillmentService) ListMyOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	orders, err := s.orderRepo.FindByUser(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return orders, nil
}
