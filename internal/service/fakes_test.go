package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"restaurant-checkout/internal/database"
	"restaurant-checkout/internal/domain"
	"restaurant-checkout/internal/infrastructure/messaging"

	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTx struct {
	err error
}

func (f *fakeTx) WithTx(_ context.Context, fn func(tx database.DBTX) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type memOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*domain.Order
	createErr error
	findErr   error
	casErr    error
	beforeCAS func()
	casCalls  int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.CartItems = append([]domain.LineItem(nil), o.CartItems...)
	if o.TotalAmount != nil {
		v := *o.TotalAmount
		c.TotalAmount = &v
	}
	return &c
}

func (r *memOrderRepo) CreateOrder(_ context.Context, _ database.DBTX, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepo) FindById(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (r *memOrderRepo) FindByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.RestaurantID == restaurantID })
}

func (r *memOrderRepo) FindByUser(_ context.Context, userID string) ([]domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.UserID == userID })
}

func (r *memOrderRepo) filter(keep func(*domain.Order) bool) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := []domain.Order{}
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memOrderRepo) CompareAndSetStatus(_ context.Context, _ database.DBTX, id uuid.UUID, expected, next domain.OrderStatus, totalAmount *int64) (bool, error) {
	if r.beforeCAS != nil {
		r.beforeCAS()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.casCalls++
	if r.casErr != nil {
		return false, r.casErr
	}
	o, ok := r.orders[id]
	if !ok || o.Status != expected {
		return false, nil
	}
	o.Status = next
	if totalAmount != nil {
		v := *totalAmount
		o.TotalAmount = &v
	}
	return true, nil
}

func (r *memOrderRepo) setStatus(id uuid.UUID, st domain.OrderStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[id].Status = st
}

func (r *memOrderRepo) get(id uuid.UUID) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil
	}
	return cloneOrder(o)
}

func (r *memOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func (r *memOrderRepo) only() *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		return cloneOrder(o)
	}
	return nil
}

type memRestaurantRepo struct {
	restaurants map[uuid.UUID]*domain.Restaurant
	err         error
}

func newMemRestaurantRepo(rs ...*domain.Restaurant) *memRestaurantRepo {
	m := &memRestaurantRepo{restaurants: make(map[uuid.UUID]*domain.Restaurant)}
	for _, r := range rs {
		m.restaurants[r.ID] = r
	}
	return m
}

func (m *memRestaurantRepo) FindById(_ context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.restaurants[id], nil
}

func (m *memRestaurantRepo) FindByOwner(_ context.Context, ownerID string) (*domain.Restaurant, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.restaurants {
		if r.OwnerID == ownerID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memRestaurantRepo) CreateRestaurant(_ context.Context, _ database.DBTX, r *domain.Restaurant) error {
	m.restaurants[r.ID] = r
	return nil
}

type memPaymentRepo struct {
	mu       sync.Mutex
	payments []domain.Payment
	err      error
}

func (m *memPaymentRepo) CreatePayment(_ context.Context, _ database.DBTX, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.payments = append(m.payments, *p)
	return nil
}

func (m *memPaymentRepo) FindByOrder(_ context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.OrderID == orderID {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memPaymentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []messaging.OrderStatusChanged
	err    error
}

func (n *recordingNotifier) NotifyStatusChanged(_ context.Context, evt messaging.OrderStatusChanged) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return n.err
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) sent() []messaging.OrderStatusChanged {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]messaging.OrderStatusChanged(nil), n.events...)
}

func burgerRestaurant(owner string) *domain.Restaurant {
	return &domain.Restaurant{
		ID:            uuid.New(),
		OwnerID:       owner,
		Name:          "Burger Barn",
		DeliveryPrice: 300,
		MenuItems:     []domain.MenuItem{{ID: "m1", Name: "Burger", Price: 500}},
	}
}
