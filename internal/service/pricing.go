package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"restaurant-checkout/internal/domain"
)

// CartItem is a buyer's cart line as submitted. Prices are never accepted
// from the buyer; Name is display-only and is replaced by the menu name.
type CartItem struct {
	MenuItemID string `json:"menuItemId" binding:"required"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity" binding:"required"`
}

// MaxQuantity is the most units of one menu item a single cart line may
// carry. It matches the provider's per-line ceiling.
const MaxQuantity = 999_999

// ResolveLineItems prices every cart line from the restaurant menu. Any
// unknown item or bad quantity fails the whole cart.
func ResolveLineItems(cart []CartItem, menu []domain.MenuItem) ([]domain.LineItem, error) {
	if len(cart) == 0 {
		return nil, domain.ErrEmptyCart
	}

	byID := make(map[string]domain.MenuItem, len(menu))
	for _, item := range menu {
		byID[item.ID] = item
	}

	lines := make([]domain.LineItem, 0, len(cart))
	for _, c := range cart {
		item, ok := byID[c.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrLineItemNotFound, c.MenuItemID)
		}

		qty, err := parseQuantity(c.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%w: %q for %s", domain.ErrInvalidQuantity, c.Quantity, c.MenuItemID)
		}

		lines = append(lines, domain.LineItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			UnitPrice:  item.Price,
			Quantity:   qty,
		})
	}

	if _, err := Subtotal(lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func parseQuantity(raw string) (int64, error) {
	qty, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if qty < 1 || qty > MaxQuantity {
		return 0, fmt.Errorf("quantity %d outside 1..%d", qty, MaxQuantity)
	}
	return qty, nil
}

// Subtotal sums unitPrice × quantity in minor units. It fails rather than
// wrap when the sum does not fit in an int64.
func Subtotal(lines []domain.LineItem) (int64, error) {
	var total int64
	for _, l := range lines {
		line, ok := mulAmount(l.UnitPrice, l.Quantity)
		if !ok {
			return 0, fmt.Errorf("%w: line %s total overflows", domain.ErrInvalidQuantity, l.MenuItemID)
		}
		total, ok = addAmount(total, line)
		if !ok {
			return 0, fmt.Errorf("%w: cart total overflows", domain.ErrInvalidQuantity)
		}
	}
	return total, nil
}

// mulAmount and addAmount work on non-negative minor-unit amounts.
func mulAmount(price, qty int64) (int64, bool) {
	if price < 0 || qty < 0 {
		return 0, false
	}
	if qty != 0 && price > math.MaxInt64/qty {
		return 0, false
	}
	return price * qty, true
}

func addAmount(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
