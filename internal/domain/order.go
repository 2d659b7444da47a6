package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type Order struct {
	ID        int64           `json:"id,omitempty"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

func NewOrder(items []CartItem) Order {
	orderItems := make([]OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = OrderItem{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}
	return Order{
		Items: orderItems,
		Total: Total(items),
	}
}
