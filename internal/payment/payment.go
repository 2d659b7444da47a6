package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const StatusCompleted = "COMPLETED"

type CaptureRequest struct {
	// Reference is the provider-side id of the approved payment.
	Reference string
	Amount    decimal.Decimal
	Currency  string
}

type Capture struct {
	ID         string
	Reference  string
	Status     string
	Amount     decimal.Decimal
	Currency   string
	CapturedAt time.Time
}

// Capturer confirms a payment the shopper already approved with the provider.
type Capturer interface {
	Capture(ctx context.Context, req CaptureRequest) (*Capture, error)
}

type Refusal int

const (
	RefusalUnknown Refusal = iota
	RefusalInsufficientFunds
	RefusalCardDeclined
	RefusalExpiredCard
	RefusalFraudSuspected
	RefusalLimitExceeded
)

func (r Refusal) String() string {
	switch r {
	case RefusalInsufficientFunds:
		return "insufficient funds"
	case RefusalCardDeclined:
		return "card declined"
	case RefusalExpiredCard:
		return "expired card"
	case RefusalFraudSuspected:
		return "fraud suspected"
	case RefusalLimitExceeded:
		return "limit exceeded"
	default:
		return "unknown"
	}
}

// CaptureError means the provider did not confirm the capture.
type CaptureError struct {
	Reference string
	Status    string
	Refusal   Refusal
	Reason    string
	Err       error
}

func (e *CaptureError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = e.Refusal.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("payment %s not captured: %v", e.Reference, e.Err)
	}
	if e.Status != "" {
		return fmt.Sprintf("payment %s not captured (%s): %s", e.Reference, e.Status, reason)
	}
	return fmt.Sprintf("payment %s not captured: %s", e.Reference, reason)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}
