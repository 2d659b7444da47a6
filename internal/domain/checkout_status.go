package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle                   CheckoutStatus = "IDLE"
	CheckoutStatusAwaitingPaymentCapture CheckoutStatus = "AWAITING_PAYMENT_CAPTURE"
	CheckoutStatusCaptureSucceeded       CheckoutStatus = "CAPTURE_SUCCEEDED"
	CheckoutStatusCaptureFailed          CheckoutStatus = "CAPTURE_FAILED"
	CheckoutStatusOrderPersistAttempted  CheckoutStatus = "ORDER_PERSIST_ATTEMPTED"
	CheckoutStatusSettled                CheckoutStatus = "SETTLED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:                   {CheckoutStatusAwaitingPaymentCapture},
	CheckoutStatusAwaitingPaymentCapture: {CheckoutStatusCaptureSucceeded, CheckoutStatusCaptureFailed},
	CheckoutStatusCaptureSucceeded:       {CheckoutStatusOrderPersistAttempted, CheckoutStatusSettled},
	CheckoutStatusOrderPersistAttempted:  {CheckoutStatusSettled},
	CheckoutStatusCaptureFailed:          {CheckoutStatusAwaitingPaymentCapture},
	CheckoutStatusSettled:                {CheckoutStatusAwaitingPaymentCapture},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether an attempt in this status is over and a new one may start.
func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusIdle || s == CheckoutStatusSettled || s == CheckoutStatusCaptureFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
