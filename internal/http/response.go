package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/cms"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/session"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/hlog"
)

const maxRequestBodySize = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		handleError(w, r, err)
		return false
	}
	return true
}

// handleError maps domain and transport errors to HTTP statuses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		authErr    *session.AuthenticationError
		captureErr *checkout.PaymentCaptureError
		fieldErrs  validator.ValidationErrors
		netErr     *cms.NetworkError
	)

	switch {
	case errors.As(err, &fieldErrs):
		respondError(w, r, http.StatusBadRequest, "invalid_argument", fieldErrs.Error())
	case errors.As(err, &authErr):
		respondError(w, r, http.StatusUnauthorized, "authentication_failed", authErr.Message)
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, r, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		respondError(w, r, http.StatusUnprocessableEntity, "empty_cart", err.Error())
	case errors.As(err, &captureErr):
		resp := ErrorResponse{Error: "payment could not be captured", Code: "payment_capture_failed"}
		var providerErr *payment.CaptureError
		if errors.As(err, &providerErr) {
			resp.Details = providerErr.Error()
		}
		respondJSON(w, r, http.StatusPaymentRequired, resp)
	case errors.Is(err, domain.ErrProductNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrOutOfStock):
		respondError(w, r, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "request timed out")
	case errors.As(err, &netErr):
		respondError(w, r, http.StatusServiceUnavailable, "service_unavailable", "upstream service unavailable")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
