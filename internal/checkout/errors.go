package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrCheckoutInProgress = errors.New("a checkout is already in progress")
	ErrIllegalTransition  = errors.New("illegal transition of checkout status")
)

// PaymentCaptureError ends an attempt in CaptureFailed. The cart is left as is.
type PaymentCaptureError struct {
	Err error
}

func (e *PaymentCaptureError) Error() string {
	return fmt.Sprintf("payment capture failed: %v", e.Err)
}

func (e *PaymentCaptureError) Unwrap() error {
	return e.Err
}
