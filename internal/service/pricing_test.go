package service

import (
	"math"
	"testing"

	"restaurant-checkout/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMenu = []domain.MenuItem{
	{ID: "m1", Name: "Burger", Price: 500},
	{ID: "m2", Name: "Fries", Price: 250},
	{ID: "m3", Name: "Shake", Price: 399},
}

func TestResolveLineItems(t *testing.T) {
	tests := []struct {
		name    string
		cart    []CartItem
		want    []domain.LineItem
		wantErr error
	}{
		{
			name: "single line",
			cart: []CartItem{{MenuItemID: "m1", Quantity: "2"}},
			want: []domain.LineItem{{MenuItemID: "m1", Name: "Burger", UnitPrice: 500, Quantity: 2}},
		},
		{
			name: "client name and price ignored",
			cart: []CartItem{{MenuItemID: "m2", Name: "Free Fries", Quantity: " 3 "}},
			want: []domain.LineItem{{MenuItemID: "m2", Name: "Fries", UnitPrice: 250, Quantity: 3}},
		},
		{
			name:    "unknown item",
			cart:    []CartItem{{MenuItemID: "m1", Quantity: "1"}, {MenuItemID: "nope", Quantity: "1"}},
			wantErr: domain.ErrLineItemNotFound,
		},
		{
			name:    "id match is exact",
			cart:    []CartItem{{MenuItemID: "M1", Quantity: "1"}},
			wantErr: domain.ErrLineItemNotFound,
		},
		{
			name:    "zero quantity",
			cart:    []CartItem{{MenuItemID: "m1", Quantity: "0"}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			cart:    []CartItem{{MenuItemID: "m1", Quantity: "-1"}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "non numeric quantity",
			cart:    []CartItem{{MenuItemID: "m1", Quantity: "two"}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "fractional quantity",
			cart:    []CartItem{{MenuItemID: "m1", Quantity: "1.5"}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name: "quantity at ceiling",
			cart: []CartItem{{MenuItemID: "m1", Quantity: "999999"}},
			want: []domain.LineItem{{MenuItemID: "m1", Name: "Burger", UnitPrice: 500, Quantity: MaxQuantity}},
		},
		{
			name:    "quantity above ceiling",
			cart:    []CartItem{{MenuItemID: "m1", Quantity: "1000000"}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "quantity that would wrap the total",
			cart:    []CartItem{{MenuItemID: "m1", Quantity: "36893488147419103"}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "empty cart",
			cart:    nil,
			wantErr: domain.ErrEmptyCart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLineItems(tt.cart, testMenu)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubtotalMatchesLineSum(t *testing.T) {
	cart := []CartItem{
		{MenuItemID: "m1", Quantity: "2"},
		{MenuItemID: "m2", Quantity: "1"},
		{MenuItemID: "m3", Quantity: "7"},
	}
	lines, err := ResolveLineItems(cart, testMenu)
	require.NoError(t, err)

	total, err := Subtotal(lines)
	require.NoError(t, err)
	assert.Equal(t, int64(500*2+250*1+399*7), total)

	total, err = Subtotal(nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSubtotalOverflow(t *testing.T) {
	tests := []struct {
		name  string
		lines []domain.LineItem
	}{
		{
			name:  "single line",
			lines: []domain.LineItem{{MenuItemID: "m1", UnitPrice: 500, Quantity: 36893488147419103}},
		},
		{
			name: "sum of lines",
			lines: []domain.LineItem{
				{MenuItemID: "m1", UnitPrice: math.MaxInt64 / 2, Quantity: 1},
				{MenuItemID: "m2", UnitPrice: math.MaxInt64 / 2, Quantity: 1},
				{MenuItemID: "m3", UnitPrice: 2, Quantity: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Subtotal(tt.lines)
			require.ErrorIs(t, err, domain.ErrInvalidQuantity)
		})
	}
}

func TestResolveLineItems_RejectsOverflowingMenuPrice(t *testing.T) {
	menu := []domain.MenuItem{{ID: "gold", Name: "Gold Burger", Price: math.MaxInt64 / 10}}

	got, err := ResolveLineItems([]CartItem{{MenuItemID: "gold", Quantity: "11"}}, menu)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Nil(t, got)
}
