package checkout

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/analytics"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CartStore interface {
	Items() []domain.CartItem
	RemoveItems(ctx context.Context, paid []domain.CartItem) error
}

type SessionReader interface {
	Token() string
}

type OrderRecorder interface {
	Record(ctx context.Context, token string, order domain.Order) (domain.Order, error)
}

type Request struct {
	PaymentReference string `json:"payment_reference" validate:"required"`
}

type Result struct {
	TransactionID string
	Status        domain.CheckoutStatus
	Total         decimal.Decimal
	Items         []domain.CartItem
	Capture       *payment.Capture
	Order         *domain.Order
	// OrderErr is set when the order could not be written. The checkout
	// still settled.
	OrderErr error
}

// Orchestrator runs one shopper's checkout attempts, one at a time.
type Orchestrator struct {
	cart     CartStore
	session  SessionReader
	payments payment.Capturer
	recorder OrderRecorder
	emitter  analytics.Emitter
	clientID string
	currency string
	log      zerolog.Logger
	metrics  *metrics.Metrics
	newID    func() string

	mu     sync.Mutex
	status domain.CheckoutStatus
}

type Deps struct {
	Cart     CartStore
	Session  SessionReader
	Payments payment.Capturer
	// Recorder may be nil, in which case settled checkouts skip the order write.
	Recorder OrderRecorder
	Emitter  analytics.Emitter
	Metrics  *metrics.Metrics
}

func New(deps Deps, clientID, currency string, log zerolog.Logger) *Orchestrator {
	emitter := deps.Emitter
	if emitter == nil {
		emitter = analytics.Nop{}
	}
	return &Orchestrator{
		cart:     deps.Cart,
		session:  deps.Session,
		payments: deps.Payments,
		recorder: deps.Recorder,
		emitter:  emitter,
		clientID: clientID,
		currency: currency,
		log:      log,
		metrics:  deps.Metrics,
		newID:    uuid.NewString,
		status:   domain.CheckoutStatusIdle,
	}
}

func (o *Orchestrator) Status() domain.CheckoutStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Checkout captures the payment for the current cart and settles it. Once
// the capture succeeds the remaining steps ignore cancellation of ctx.
func (o *Orchestrator) Checkout(ctx context.Context, req Request) (*Result, error) {
	items, err := o.begin()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Items: items,
		Total: domain.Total(items),
	}
	o.emit(ctx, analytics.EventBeginCheckout, "", res)

	capture, err := o.capture(ctx, req.PaymentReference, res.Total)
	if err != nil {
		return nil, err
	}
	res.Capture = capture

	settleCtx := context.WithoutCancel(ctx)
	if err := o.persistOrder(settleCtx, res); err != nil {
		return nil, err
	}
	if err := o.settle(settleCtx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// begin claims the orchestrator for a new attempt.
func (o *Orchestrator) begin() ([]domain.CartItem, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.status.IsTerminal() {
		return nil, ErrCheckoutInProgress
	}
	items := o.cart.Items()
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if err := o.transitionLocked(domain.CheckoutStatusAwaitingPaymentCapture); err != nil {
		return nil, err
	}
	return items, nil
}

func (o *Orchestrator) transition(to domain.CheckoutStatus) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transitionLocked(to)
}

func (o *Orchestrator) transitionLocked(to domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(o.status, to) {
		o.log.Error().Str("from", o.status.String()).Str("to", to.String()).Msg("illegal checkout transition")
		return ErrIllegalTransition
	}
	o.log.Debug().Str("from", o.status.String()).Str("to", to.String()).Msg("checkout transition")
	o.status = to
	return nil
}

func (o *Orchestrator) emit(ctx context.Context, name, transactionID string, res *Result) {
	e := analytics.Event{
		Name:          name,
		ClientID:      o.clientID,
		Currency:      o.currency,
		Value:         res.Total,
		TransactionID: transactionID,
		Items:         analytics.ItemsFromCart(res.Items),
		OccurredAt:    timeNow(),
	}
	if err := o.emitter.Emit(ctx, e); err != nil {
		o.log.Debug().Err(err).Str("event", name).Msg("analytics emit failed")
	}
}
