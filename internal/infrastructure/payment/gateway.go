package payment

import (
	"context"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

// Gateway is the payment provider capability. Implementations are built
// once at startup and injected; there is no process-wide client.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	// ParseEvent verifies signatureHeader against payload and decodes it.
	// Verification failures wrap domain.ErrInvalidSignature.
	ParseEvent(payload []byte, signatureHeader string) (*Event, error)
}

type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	Currency    string
	LineItems   []LineItem
	DeliveryFee int64
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

type Session struct {
	ID  string
	URL string
}

// Event is a verified provider notification. Session fields are only
// populated for checkout.session.* events.
type Event struct {
	ID          string
	Type        string
	SessionID   string
	AmountTotal int64
	Metadata    map[string]string
}
