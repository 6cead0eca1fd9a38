package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"restaurant-checkout/internal/database"
	"restaurant-checkout/internal/domain"

	"github.com/google/uuid"
)

type OrderRepo interface {
	CreateOrder(ctx context.Context, tx database.DBTX, order *domain.Order) error
	// FindById returns nil, nil when the order does not exist.
	FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// FindByRestaurant and FindByUser return newest first, each order
	// carrying its restaurant summary.
	FindByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.Order, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// CompareAndSetStatus moves the order from expected to next in a single
	// conditional update and reports whether it won. A non-nil totalAmount
	// is written alongside the status.
	CompareAndSetStatus(ctx context.Context, tx database.DBTX, id uuid.UUID, expected, next domain.OrderStatus, totalAmount *int64) (bool, error)
}

type orderRepo struct {
	db database.DBTX
}

func NewOrderRepo(db database.DBTX) OrderRepo {
	return &orderRepo{db: db}
}

const orderColumns = `id, restaurant_id, user_id,
	delivery_email, delivery_name, delivery_address_line1, delivery_city,
	cart_items, total_amount, status, created_at, updated_at`

// listColumns is orderColumns qualified for the orders/restaurants join,
// followed by the restaurant summary.
const listColumns = `o.id, o.restaurant_id, o.user_id,
	o.delivery_email, o.delivery_name, o.delivery_address_line1, o.delivery_city,
	o.cart_items, o.total_amount, o.status, o.created_at, o.updated_at,
	r.restaurant_name, r.city, r.country, r.delivery_price, r.estimated_delivery_time`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanOrder reads orderColumns, then any extra destinations.
func scanOrder(row rowScanner, extra ...any) (*domain.Order, error) {
	var (
		order     domain.Order
		cartItems []byte
		total     sql.NullInt64
	)
	dest := []any{
		&order.ID,
		&order.RestaurantID,
		&order.UserID,
		&order.DeliveryDetails.Email,
		&order.DeliveryDetails.Name,
		&order.DeliveryDetails.AddressLine1,
		&order.DeliveryDetails.City,
		&cartItems,
		&total,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cartItems, &order.CartItems); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	if total.Valid {
		order.TotalAmount = &total.Int64
	}
	return &order, nil
}

func (r *orderRepo) CreateOrder(ctx context.Context, tx database.DBTX, order *domain.Order) error {
	cartItems, err := json.Marshal(order.CartItems)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		order.ID,
		order.RestaurantID,
		order.UserID,
		order.DeliveryDetails.Email,
		order.DeliveryDetails.Name,
		order.DeliveryDetails.AddressLine1,
		order.DeliveryDetails.City,
		cartItems,
		order.TotalAmount,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *orderRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err // system error
	}
	return order, nil
}

func (r *orderRepo) FindByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+listColumns+`
		FROM orders o JOIN restaurants r ON r.id = o.restaurant_id
		WHERE o.restaurant_id = $1
		ORDER BY o.created_at DESC`, restaurantID)
}

func (r *orderRepo) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+listColumns+`
		FROM orders o JOIN restaurants r ON r.id = o.restaurant_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC`, userID)
}

func (r *orderRepo) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var rest domain.RestaurantSummary
		order, err := scanOrder(rows,
			&rest.Name,
			&rest.City,
			&rest.Country,
			&rest.DeliveryPrice,
			&rest.EstimatedDeliveryTime,
		)
		if err != nil {
			return nil, err
		}
		rest.ID = order.RestaurantID
		order.Restaurant = &rest
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func (r *orderRepo) CompareAndSetStatus(ctx context.Context, tx database.DBTX, id uuid.UUID, expected, next domain.OrderStatus, totalAmount *int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $3,
		    total_amount = COALESCE($4, total_amount),
		    updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, expected, next, totalAmount,
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
