package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/shopper"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type Shoppers interface {
	Get(ctx context.Context, clientID string) (*shopper.Shopper, error)
}

type CartHandler struct {
	shoppers Shoppers
	catalog  Catalog
	timeout  time.Duration
}

func NewCartHandler(shoppers Shoppers, c Catalog, timeout time.Duration) *CartHandler {
	return &CartHandler{
		shoppers: shoppers,
		catalog:  c,
		timeout:  timeout,
	}
}

// productRef accepts a slug or a numeric id, quoted or not.
type productRef string

func (p *productRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = productRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product must be a slug or an id: %w", err)
	}
	*p = productRef(n.String())
	return nil
}

type AddItemRequestDTO struct {
	Product productRef `json:"product" validate:"required"`
}

type CartResponse struct {
	Items         []domain.CartItem `json:"items"`
	Total         decimal.Decimal   `json:"total"`
	TotalQuantity int               `json:"total_quantity"`
}

func newCartResponse(c domain.Cart) CartResponse {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartResponse{
		Items:         items,
		Total:         c.Total(),
		TotalQuantity: c.TotalQuantity(),
	}
}

func loadShopper(w http.ResponseWriter, r *http.Request, shoppers Shoppers) (*shopper.Shopper, bool) {
	s, err := shoppers.Get(r.Context(), clientIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	return s, true
}

// existingShopper is loadShopper for requests that cannot create state. A
// client without an id gets nil and the caller answers as for an empty
// shopper, so reads never register one.
func existingShopper(w http.ResponseWriter, r *http.Request, shoppers Shoppers) (*shopper.Shopper, bool) {
	if clientIDIssued(r.Context()) {
		return nil, true
	}
	return loadShopper(w, r, shoppers)
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := existingShopper(w, r, h.shoppers)
	if !ok {
		return
	}
	if s == nil {
		respondJSON(w, r, http.StatusOK, newCartResponse(domain.Cart{}))
		return
	}
	respondJSON(w, r, http.StatusOK, newCartResponse(s.Cart.Cart()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	s, ok := loadShopper(w, r, h.shoppers)
	if !ok {
		return
	}

	p := h.catalog.Product(ctx, string(req.Product))
	if p == nil {
		handleError(w, r, domain.ErrProductNotFound)
		return
	}
	if !p.InStock {
		handleError(w, r, domain.ErrOutOfStock)
		return
	}
	if err := s.Cart.AddToCart(ctx, p.CartInput()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, newCartResponse(s.Cart.Cart()))
}

// POST /api/v1/cart/items/{id}/increase
func (h *CartHandler) Increase(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, func(ctx context.Context, s *shopper.Shopper, id int64) error {
		return s.Cart.IncreaseQuantity(ctx, id)
	})
}

// POST /api/v1/cart/items/{id}/decrease
func (h *CartHandler) Decrease(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, func(ctx context.Context, s *shopper.Shopper, id int64) error {
		return s.Cart.DecreaseQuantity(ctx, id)
	})
}

// DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, func(ctx context.Context, s *shopper.Shopper, id int64) error {
		return s.Cart.RemoveFromCart(ctx, id)
	})
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, ok := existingShopper(w, r, h.shoppers)
	if !ok {
		return
	}
	if s == nil {
		respondJSON(w, r, http.StatusOK, newCartResponse(domain.Cart{}))
		return
	}
	if err := s.Cart.ClearCart(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newCartResponse(s.Cart.Cart()))
}

func (h *CartHandler) mutateItem(w http.ResponseWriter, r *http.Request, fn func(context.Context, *shopper.Shopper, int64) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := itemID(w, r)
	if !ok {
		return
	}
	s, ok := existingShopper(w, r, h.shoppers)
	if !ok {
		return
	}
	if s == nil {
		respondJSON(w, r, http.StatusOK, newCartResponse(domain.Cart{}))
		return
	}
	if err := fn(ctx, s, id); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newCartResponse(s.Cart.Cart()))
}
