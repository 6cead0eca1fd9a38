package domain

import "errors"

var (
	ErrLineItemNotFound      = errors.New("menu item not found")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrRestaurantNotFound    = errors.New("restaurant not found")
	ErrCheckoutSessionFailed = errors.New("checkout session has no redirect url")
	ErrPaymentProvider       = errors.New("payment provider error")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrOrderNotFound         = errors.New("order not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrStoreUnavailable      = errors.New("order store unavailable")
	ErrInvalidStatus         = errors.New("invalid order status")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrStatusConflict        = errors.New("order status changed concurrently")
)

// ProviderError carries the payment provider's own message to the caller.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return "payment provider: " + e.Message
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPaymentProvider}
	}
	return []error{ErrPaymentProvider, e.Err}
}
