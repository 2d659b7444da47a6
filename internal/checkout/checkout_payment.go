package checkout

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/shopspring/decimal"
)

func (o *Orchestrator) capture(ctx context.Context, reference string, total decimal.Decimal) (*payment.Capture, error) {
	capture, err := o.payments.Capture(ctx, payment.CaptureRequest{
		Reference: reference,
		Amount:    total,
		Currency:  o.currency,
	})
	if err != nil {
		if tErr := o.transition(domain.CheckoutStatusCaptureFailed); tErr != nil {
			return nil, tErr
		}
		o.metrics.Checkout("capture_failed")
		o.log.Warn().Err(err).Str("reference", reference).Msg("payment capture failed, cart kept")
		return nil, &PaymentCaptureError{Err: err}
	}

	if err := o.transition(domain.CheckoutStatusCaptureSucceeded); err != nil {
		return nil, err
	}
	o.log.Info().Str("reference", reference).Str("capture_id", capture.ID).Str("total", total.String()).Msg("payment captured")
	return capture, nil
}
