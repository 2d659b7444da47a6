package analytics

import (
	"context"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	EventAddToCart      = "add_to_cart"
	EventRemoveFromCart = "remove_from_cart"
	EventBeginCheckout  = "begin_checkout"
	EventPurchase       = "purchase"
)

type Item struct {
	ItemID   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity,omitempty"`
}

type Event struct {
	Name          string          `json:"event"`
	ClientID      string          `json:"client_id,omitempty"`
	Currency      string          `json:"currency"`
	Value         decimal.Decimal `json:"value"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Items         []Item          `json:"items"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Emitter receives best-effort notifications. Callers ignore its errors.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Emit(context.Context, Event) error { return nil }

func ItemFromCart(item domain.CartItem) Item {
	return Item{
		ItemID:   strconv.FormatInt(item.ID, 10),
		ItemName: item.Name,
		Price:    item.Price,
		Quantity: item.Quantity,
	}
}

func ItemsFromCart(items []domain.CartItem) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = ItemFromCart(item)
	}
	return out
}
