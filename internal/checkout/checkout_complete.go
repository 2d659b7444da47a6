package checkout

import (
	"context"
	"time"

	"github.com/fjod/storefront/internal/analytics"
	"github.com/fjod/storefront/internal/domain"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// persistOrder writes the order record. A failed write is reported on the
// result and never aborts the checkout.
func (o *Orchestrator) persistOrder(ctx context.Context, res *Result) error {
	if o.recorder == nil {
		return nil
	}
	if err := o.transition(domain.CheckoutStatusOrderPersistAttempted); err != nil {
		return err
	}

	token := ""
	if o.session != nil {
		token = o.session.Token()
	}
	stored, err := o.recorder.Record(ctx, token, domain.NewOrder(res.Items))
	if err != nil {
		res.OrderErr = err
		o.metrics.OrderPersistFailed()
		o.log.Error().Err(err).Msg("order not persisted after captured payment")
		return nil
	}
	res.Order = &stored
	return nil
}

// settle takes the paid items out of the cart. Anything the shopper added
// while the capture was running stays for the next checkout.
func (o *Orchestrator) settle(ctx context.Context, res *Result) error {
	if err := o.cart.RemoveItems(ctx, res.Items); err != nil {
		o.log.Error().Err(err).Msg("paid items not removed from cart after checkout")
	}

	res.TransactionID = o.newID()
	o.emit(ctx, analytics.EventPurchase, res.TransactionID, res)

	if err := o.transition(domain.CheckoutStatusSettled); err != nil {
		return err
	}
	res.Status = domain.CheckoutStatusSettled
	o.metrics.Checkout("settled")
	o.log.Info().Str("transaction_id", res.TransactionID).Str("total", res.Total.String()).Msg("checkout settled")
	return nil
}
