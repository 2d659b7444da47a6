package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type OrderHistory interface {
	List(ctx context.Context, s domain.Session) []domain.Order
}

type OrdersHandler struct {
	shoppers Shoppers
	history  OrderHistory
	timeout  time.Duration
}

func NewOrdersHandler(shoppers Shoppers, history OrderHistory, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		shoppers: shoppers,
		history:  history,
		timeout:  timeout,
	}
}

type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// GET /api/v1/orders
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, ok := existingShopper(w, r, h.shoppers)
	if !ok {
		return
	}
	if s == nil {
		respondJSON(w, r, http.StatusOK, OrdersResponse{Orders: []domain.Order{}})
		return
	}
	respondJSON(w, r, http.StatusOK, OrdersResponse{Orders: h.history.List(ctx, s.Session.Current())})
}
