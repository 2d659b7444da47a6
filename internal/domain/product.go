package domain

import "github.com/shopspring/decimal"

const UncategorizedCategory = "Uncategorized"

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url,omitempty"`
	InStock     bool            `json:"in_stock"`
	Category    string          `json:"category"`
}

// CartInput snapshots the fields a cart entry keeps from the product.
func (p Product) CartInput() CartItemInput {
	return CartItemInput{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
	}
}
