package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type CheckoutHandler struct {
	shoppers Shoppers
	timeout  time.Duration
}

func NewCheckoutHandler(shoppers Shoppers, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		shoppers: shoppers,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	PaymentReference string `json:"payment_reference" validate:"required"`
}

type CheckoutResponseDTO struct {
	TransactionID  string            `json:"transaction_id"`
	Status         string            `json:"status"`
	Total          decimal.Decimal   `json:"total"`
	Items          []domain.CartItem `json:"items"`
	CaptureID      string            `json:"capture_id,omitempty"`
	OrderID        int64             `json:"order_id,omitempty"`
	OrderPersisted bool              `json:"order_persisted"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	s, ok := existingShopper(w, r, h.shoppers)
	if !ok {
		return
	}
	if s == nil {
		handleError(w, r, domain.ErrEmptyCart)
		return
	}

	res, err := s.Checkout.Checkout(ctx, checkout.Request{PaymentReference: req.PaymentReference})
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := CheckoutResponseDTO{
		TransactionID:  res.TransactionID,
		Status:         res.Status.String(),
		Total:          res.Total,
		Items:          res.Items,
		OrderPersisted: res.OrderErr == nil && res.Order != nil,
	}
	if res.Capture != nil {
		resp.CaptureID = res.Capture.ID
	}
	if res.Order != nil {
		resp.OrderID = res.Order.ID
	}
	respondJSON(w, r, http.StatusCreated, resp)
}
