package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPCapturer captures approved orders through a provider's REST API.
type HTTPCapturer struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPCapturer(baseURL, token string, timeout time.Duration) *HTTPCapturer {
	return &HTTPCapturer{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type captureAmount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string        `json:"id"`
				Status string        `json:"status"`
				Amount captureAmount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type providerError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

func (c *HTTPCapturer) Capture(ctx context.Context, req CaptureRequest) (*Capture, error) {
	if req.Reference == "" {
		return nil, &CaptureError{Reason: "missing payment reference"}
	}

	endpoint := fmt.Sprintf("%s/v2/checkout/orders/%s/capture", c.baseURL, url.PathEscape(req.Reference))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader("{}"))
	if err != nil {
		return nil, &CaptureError{Reference: req.Reference, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &CaptureError{Reference: req.Reference, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, &CaptureError{Reference: req.Reference, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var pe providerError
		_ = json.Unmarshal(body, &pe)
		reason := pe.Message
		if len(pe.Details) > 0 && pe.Details[0].Description != "" {
			reason = pe.Details[0].Description
		}
		if reason == "" {
			reason = http.StatusText(res.StatusCode)
		}
		status := pe.Name
		if status == "" {
			status = fmt.Sprintf("HTTP %d", res.StatusCode)
		}
		return nil, &CaptureError{Reference: req.Reference, Status: status, Reason: reason}
	}

	var cr captureResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, &CaptureError{Reference: req.Reference, Err: fmt.Errorf("failed to decode capture: %w", err)}
	}
	if cr.Status != StatusCompleted {
		return nil, &CaptureError{Reference: req.Reference, Status: cr.Status, Reason: "capture not completed"}
	}

	capture := &Capture{
		ID:         cr.ID,
		Reference:  req.Reference,
		Status:     cr.Status,
		Amount:     req.Amount,
		Currency:   req.Currency,
		CapturedAt: time.Now().UTC(),
	}
	if len(cr.PurchaseUnits) > 0 && len(cr.PurchaseUnits[0].Payments.Captures) > 0 {
		first := cr.PurchaseUnits[0].Payments.Captures[0]
		capture.ID = first.ID
		if amount, err := decimal.NewFromString(first.Amount.Value); err == nil {
			capture.Amount = amount
			capture.Currency = first.Amount.CurrencyCode
		}
	}
	return capture, nil
}
