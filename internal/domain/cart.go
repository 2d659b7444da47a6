package domain

import "github.com/shopspring/decimal"

type CartItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Quantity int             `json:"quantity"`
}

// CartItemInput is a CartItem without its quantity.
type CartItemInput struct {
	ID       int64           `json:"id" validate:"required"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

func (c CartItem) Subtotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type Cart struct {
	Items []CartItem `json:"items"`
}

func (c Cart) Total() decimal.Decimal {
	return Total(c.Items)
}

func (c Cart) TotalQuantity() int {
	return TotalQuantity(c.Items)
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) Find(id int64) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return CartItem{}, false
}

// Total is Σ price × quantity over items.
func Total(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func TotalQuantity(items []CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

// ValidateItems reports whether items satisfy the cart invariants:
// positive quantities and at most one entry per id.
func ValidateItems(items []CartItem) error {
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if _, dup := seen[item.ID]; dup {
			return ErrDuplicateCartItem
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}
