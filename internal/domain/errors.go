package domain

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrInvalidQuantity   = errors.New("cart item quantity must be at least 1")
	ErrDuplicateCartItem = errors.New("cart contains duplicate item ids")
	ErrProductNotFound   = errors.New("product not found")
	ErrOutOfStock        = errors.New("product is out of stock")
)
