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

// RestaurantRepo is the read side of restaurants this service needs.
// CreateRestaurant exists for seeding only.
type RestaurantRepo interface {
	FindById(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
	FindByOwner(ctx context.Context, ownerID string) (*domain.Restaurant, error)
	CreateRestaurant(ctx context.Context, tx database.DBTX, restaurant *domain.Restaurant) error
}

type restaurantRepo struct {
	db database.DBTX
}

func NewRestaurantRepo(db database.DBTX) RestaurantRepo {
	return &restaurantRepo{db: db}
}

const restaurantColumns = `id, owner_id, restaurant_name, city, country,
	delivery_price, estimated_delivery_time, cuisines, last_update`

func (r *restaurantRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	return r.findOne(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
}

func (r *restaurantRepo) FindByOwner(ctx context.Context, ownerID string) (*domain.Restaurant, error) {
	return r.findOne(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE owner_id = $1`, ownerID)
}

func (r *restaurantRepo) findOne(ctx context.Context, query string, arg any) (*domain.Restaurant, error) {
	var (
		rest     domain.Restaurant
		cuisines []byte
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&rest.ID,
		&rest.OwnerID,
		&rest.Name,
		&rest.City,
		&rest.Country,
		&rest.DeliveryPrice,
		&rest.EstimatedDeliveryTime,
		&cuisines,
		&rest.LastUpdate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cuisines, &rest.Cuisines); err != nil {
		return nil, fmt.Errorf("decode cuisines: %w", err)
	}

	rest.MenuItems, err = r.menu(ctx, rest.ID)
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

func (r *restaurantRepo) menu(ctx context.Context, restaurantID uuid.UUID) ([]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price FROM menu_items WHERE restaurant_id = $1 ORDER BY position, id`,
		restaurantID,
	)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *restaurantRepo) CreateRestaurant(ctx context.Context, tx database.DBTX, rest *domain.Restaurant) error {
	cuisines, err := json.Marshal(rest.Cuisines)
	if err != nil {
		return fmt.Errorf("encode cuisines: %w", err)
	}
	if rest.Cuisines == nil {
		cuisines = []byte("[]")
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO restaurants (`+restaurantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rest.ID, rest.OwnerID, rest.Name, rest.City, rest.Country,
		rest.DeliveryPrice, rest.EstimatedDeliveryTime, cuisines, rest.LastUpdate,
	)
	if err != nil {
		return fmt.Errorf("insert restaurant: %w", err)
	}

	for i, item := range rest.MenuItems {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO menu_items (id, restaurant_id, name, price, position) VALUES ($1, $2, $3, $4, $5)`,
			item.ID, rest.ID, item.Name, item.Price, i,
		)
		if err != nil {
			return fmt.Errorf("insert menu item %s: %w", item.ID, err)
		}
	}
	return nil
}
