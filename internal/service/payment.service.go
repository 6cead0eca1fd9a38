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
	"restaurant-checkout/internal/infrastructure/payment"
	"restaurant-checkout/internal/repo"

	"github.com/google/uuid"
)

// Outcome is what a callback delivery did to the order store.
type Outcome string

const (
	OutcomePaid         Outcome = "paid"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeUnknownOrder Outcome = "unknown_order"
)

type PaymentService interface {
	// HandleCallback verifies and applies one provider delivery. Only
	// ErrInvalidSignature and ErrStoreUnavailable should invite redelivery;
	// see Redeliver.
	HandleCallback(ctx context.Context, payload []byte, signature string) (Outcome, error)
}

// Redeliver reports whether the provider should retry a delivery that
// ended with err.
func Redeliver(err error) bool {
	return errors.Is(err, domain.ErrInvalidSignature) || errors.Is(err, domain.ErrStoreUnavailable)
}

var errLostRace = errors.New("order left placed concurrently")

type paymentService struct {
	db          database.Transactor
	orderRepo   repo.OrderRepo
	paymentRepo repo.PaymentRepo
	gateway     payment.Gateway
	notifier    messaging.Notifier
	logger      *slog.Logger
	now         func() time.Time
}

func NewPaymentService(
	db database.Transactor,
	orderRepo repo.OrderRepo,
	paymentRepo repo.PaymentRepo,
	gateway payment.Gateway,
	notifier messaging.Notifier,
	logger *slog.Logger,
) PaymentService {
	return &paymentService{
		db:          db,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *paymentService) HandleCallback(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	evt, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		s.logger.Warn("webhook rejected", "err", err)
		return "", err
	}

	if evt.Type != payment.EventCheckoutSessionCompleted {
		s.logger.Debug("webhook ignored", "event_id", evt.ID, "type", evt.Type)
		return OutcomeIgnored, nil
	}

	orderID, err := uuid.Parse(evt.Metadata["orderId"])
	if err != nil {
		s.logger.Warn("webhook without order id", "event_id", evt.ID, "order_id", evt.Metadata["orderId"])
		return OutcomeUnknownOrder, fmt.Errorf("%w: %q", domain.ErrOrderNotFound, evt.Metadata["orderId"])
	}

	order, err := s.orderRepo.FindById(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("%w: load order: %w", domain.ErrStoreUnavailable, err)
	}
	if order == nil {
		s.logger.Warn("webhook for unknown order", "event_id", evt.ID, "order_id", orderID)
		return OutcomeUnknownOrder, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}

	if order.Status != domain.OrderPlaced {
		s.logger.Info("duplicate payment delivery", "event_id", evt.ID, "order_id", orderID, "status", order.Status)
		return OutcomeDuplicate, nil
	}

	amount := evt.AmountTotal
	now := s.now().UTC()
	err = s.db.WithTx(ctx, func(tx database.DBTX) error {
		won, err := s.orderRepo.CompareAndSetStatus(ctx, tx, orderID, domain.OrderPlaced, domain.OrderPaid, &amount)
		if err != nil {
			return err
		}
		if !won {
			return errLostRace
		}
		return s.paymentRepo.CreatePayment(ctx, tx, &domain.Payment{
			ID:                uuid.New(),
			OrderID:           orderID,
			ProviderEventID:   evt.ID,
			ProviderSessionID: evt.SessionID,
			Amount:            amount,
			Status:            domain.PaymentSucceeded,
			CreatedAt:         now,
		})
	})
	if errors.Is(err, errLostRace) {
		s.logger.Info("duplicate payment delivery", "event_id", evt.ID, "order_id", orderID, "status", "raced")
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: mark paid: %w", domain.ErrStoreUnavailable, err)
	}

	order.Status = domain.OrderPaid
	order.TotalAmount = &amount
	order.UpdatedAt = now

	s.logger.Info("order paid", "event_id", evt.ID, "order_id", orderID, "total_amount", amount)
	if err := s.notifier.NotifyStatusChanged(ctx, messaging.NewOrderStatusChanged(order, now)); err != nil {
		s.logger.Warn("status notification failed", "order_id", orderID, "err", err)
	}
	return OutcomePaid, nil
}
