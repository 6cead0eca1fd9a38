package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"restaurant-checkout/internal/domain"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81/webhook"
)

// MockGateway stands in for the provider in local runs and tests. Sessions
// live in memory and completion events are signed with the same scheme the
// real provider uses.
type MockGateway struct {
	mu       sync.RWMutex
	secret   string
	chaos    int
	sessions map[string]SessionRequest
	requests []SessionRequest
	nextErr  error
	blankURL bool
}

// NewMockGateway returns a gateway whose CreateCheckoutSession fails for
// roughly chaos percent of calls (0 disables failures).
func NewMockGateway(secret string, chaos int) *MockGateway {
	return &MockGateway{
		secret:   secret,
		chaos:    chaos,
		sessions: make(map[string]SessionRequest),
	}
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if err := m.nextErr; err != nil {
		m.nextErr = nil
		return nil, &domain.ProviderError{Message: err.Error(), Err: err}
	}

	if m.chaos > 0 && rand.IntN(100) < m.chaos {
		err := errors.New("Connection Timeout")
		return nil, &domain.ProviderError{Message: err.Error(), Err: err}
	}

	id := "cs_mock_" + uuid.NewString()
	m.sessions[id] = req

	if m.blankURL {
		return &Session{ID: id}, nil
	}
	return &Session{ID: id, URL: "https://checkout.mock/pay/" + id}, nil
}

func (m *MockGateway) ParseEvent(payload []byte, signatureHeader string) (*Event, error) {
	return parseStripeEvent(payload, signatureHeader, m.secret)
}

// FailNext makes the next CreateCheckoutSession call return err.
func (m *MockGateway) FailNext(err error) {
	m.mu.Lock()
	m.nextErr = err
	m.mu.Unlock()
}

// ReturnBlankURL makes sessions come back without a redirect URL.
func (m *MockGateway) ReturnBlankURL(blank bool) {
	m.mu.Lock()
	m.blankURL = blank
	m.mu.Unlock()
}

// Requests returns every session request seen so far.
func (m *MockGateway) Requests() []SessionRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]SessionRequest(nil), m.requests...)
}

// Sessions returns the ids of created sessions.
func (m *MockGateway) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// CompleteSession builds the signed checkout.session.completed delivery the
// provider would send once the buyer pays. amount_total is line items plus
// the delivery fee.
func (m *MockGateway) CompleteSession(sessionID string) ([]byte, string, error) {
	m.mu.RLock()
	req, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("unknown session %s", sessionID)
	}

	total := req.DeliveryFee
	for _, item := range req.LineItems {
		total += item.UnitAmount * item.Quantity
	}

	payload, err := json.Marshal(map[string]any{
		"id":     "evt_mock_" + uuid.NewString(),
		"object": "event",
		"type":   EventCheckoutSessionCompleted,
		"data": map[string]any{
			"object": map[string]any{
				"id":           sessionID,
				"object":       "checkout.session",
				"amount_total": total,
				"currency":     req.Currency,
				"metadata":     req.Metadata,
			},
		},
	})
	if err != nil {
		return nil, "", err
	}
	return payload, m.Sign(payload), nil
}

// Sign returns a provider signature header for payload.
func (m *MockGateway) Sign(payload []byte) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    m.secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}
