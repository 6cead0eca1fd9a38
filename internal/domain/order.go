package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPlaced         OrderStatus = "placed"
	OrderPaid           OrderStatus = "paid"
	OrderInProgress     OrderStatus = "inProgress"
	OrderOutForDelivery OrderStatus = "outForDelivery"
	OrderDelivered      OrderStatus = "delivered"
)

// lifecycle is the fixed forward order of statuses.
var lifecycle = []OrderStatus{
	OrderPlaced,
	OrderPaid,
	OrderInProgress,
	OrderOutForDelivery,
	OrderDelivered,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range lifecycle {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Next returns the immediate successor of s. The last status has none.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, st := range lifecycle {
		if st == s && i+1 < len(lifecycle) {
			return lifecycle[i+1], true
		}
	}
	return "", false
}

type DeliveryDetails struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
}

// LineItem is a cart line priced from the restaurant menu at order time.
type LineItem struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unitPrice"`
	Quantity   int64  `json:"quantity"`
}

type Order struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurantId"`
	// Restaurant is filled on order listings only.
	Restaurant      *RestaurantSummary `json:"restaurant,omitempty"`
	UserID          string             `json:"user"`
	DeliveryDetails DeliveryDetails    `json:"deliveryDetails"`
	CartItems       []LineItem         `json:"cartItems"`
	// TotalAmount stays nil until the payment callback is reconciled.
	TotalAmount *int64      `json:"totalAmount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}
