package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"restaurant-checkout/internal/database"
	"restaurant-checkout/internal/domain"

	"github.com/google/uuid"
)

type PaymentRepo interface {
	// tx keeps the receipt in the same transaction as the status change
	CreatePayment(ctx context.Context, tx database.DBTX, payment *domain.Payment) error
	// FindByOrder returns nil, nil when the order has no reconciled payment.
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
}

type paymentRepo struct {
	db database.DBTX
}

func NewPaymentRepo(db database.DBTX) PaymentRepo {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) CreatePayment(ctx context.Context, tx database.DBTX, payment *domain.Payment) error {
	query := `INSERT INTO payments (id, order_id, provider_event_id, provider_session_id, amount, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.ExecContext(
		ctx, query, payment.ID, payment.OrderID, payment.ProviderEventID, payment.ProviderSessionID, payment.Amount, payment.Status, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *paymentRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	query := `SELECT id, order_id, provider_event_id, provider_session_id, amount, status, created_at FROM payments WHERE order_id = $1`
	row := r.db.QueryRowContext(ctx, query, orderID)
	var p domain.Payment
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.ProviderEventID,
		&p.ProviderSessionID,
		&p.Amount,
		&p.Status,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
