package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "SUCCEEDED"
)

// Payment is the receipt of a reconciled provider event.
type Payment struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	ProviderEventID   string
	ProviderSessionID string
	Amount            int64
	Status            PaymentStatus
	CreatedAt         time.Time
}
