package domain

import (
	"time"

	"github.com/google/uuid"
)

type MenuItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type Restaurant struct {
	ID                    uuid.UUID  `json:"id"`
	OwnerID               string     `json:"user"`
	Name                  string     `json:"restaurantName"`
	City                  string     `json:"city"`
	Country               string     `json:"country"`
	DeliveryPrice         int64      `json:"deliveryPrice"`
	EstimatedDeliveryTime int        `json:"estimatedDeliveryTime"`
	Cuisines              []string   `json:"cuisines"`
	MenuItems             []MenuItem `json:"menuItems"`
	LastUpdate            time.Time  `json:"lastUpdate"`
}

// RestaurantSummary is the part of a restaurant shown next to its orders.
type RestaurantSummary struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"restaurantName"`
	City                  string    `json:"city"`
	Country               string    `json:"country"`
	DeliveryPrice         int64     `json:"deliveryPrice"`
	EstimatedDeliveryTime int       `json:"estimatedDeliveryTime"`
}
