package shopper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/analytics"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/session"
	"github.com/fjod/storefront/internal/storage"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Shopper is the state one client instance owns.
type Shopper struct {
	ClientID string
	Cart     *cart.Store
	Session  *session.Manager
	Checkout *checkout.Orchestrator
}

const (
	DefaultMaxShoppers    = 10000
	DefaultRestoreTimeout = 10 * time.Second
)

type Deps struct {
	Storage  storage.Store
	Auth     session.Authenticator
	Payments payment.Capturer
	Recorder checkout.OrderRecorder
	Emitter  analytics.Emitter
	Metrics  *metrics.Metrics
	Currency string
	Log      zerolog.Logger
	// MaxShoppers caps the shoppers kept in memory. The least recently used
	// one is dropped and later rebuilt from storage.
	MaxShoppers    int
	RestoreTimeout time.Duration
}

// Registry builds and restores each shopper once and keeps the most
// recently used ones in memory.
type Registry struct {
	deps Deps

	group    singleflight.Group
	shoppers *lru.Cache[string, *Shopper]

	// draining holds evicted shoppers whose checkout was still running, so
	// the next request gets the same instance back.
	mu       sync.Mutex
	draining map[string]*Shopper
}

func NewRegistry(deps Deps) *Registry {
	if deps.Emitter == nil {
		deps.Emitter = analytics.Nop{}
	}
	if deps.Currency == "" {
		deps.Currency = cart.DefaultCurrency
	}
	if deps.MaxShoppers <= 0 {
		deps.MaxShoppers = DefaultMaxShoppers
	}
	if deps.RestoreTimeout <= 0 {
		deps.RestoreTimeout = DefaultRestoreTimeout
	}
	r := &Registry{
		deps:     deps,
		draining: make(map[string]*Shopper),
	}
	// only fails for a non-positive size
	r.shoppers, _ = lru.NewWithEvict[string, *Shopper](deps.MaxShoppers, r.evicted)
	return r
}

func (r *Registry) Get(ctx context.Context, clientID string) (*Shopper, error) {
	if s := r.lookup(clientID); s != nil {
		return s, nil
	}

	// The restore is shared by every caller for clientID, so it runs
	// detached from the one that started it.
	ch := r.group.DoChan(clientID, func() (any, error) {
		if s := r.lookup(clientID); s != nil {
			return s, nil
		}
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.deps.RestoreTimeout)
		defer cancel()

		s, err := r.build(buildCtx, clientID)
		if err != nil {
			return nil, err
		}
		r.shoppers.Add(clientID, s)
		return s, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Shopper), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shoppers.Len() + len(r.draining)
}

func (r *Registry) lookup(clientID string) *Shopper {
	if s, ok := r.shoppers.Get(clientID); ok {
		return s
	}

	r.mu.Lock()
	s, ok := r.draining[clientID]
	if ok {
		delete(r.draining, clientID)
	}
	r.mu.Unlock()

	if ok {
		r.shoppers.Add(clientID, s)
		return s
	}
	return nil
}

func (r *Registry) evicted(clientID string, s *Shopper) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, d := range r.draining {
		if d.Checkout.Status().IsTerminal() {
			delete(r.draining, id)
		}
	}
	if !s.Checkout.Status().IsTerminal() {
		r.draining[clientID] = s
		return
	}
	r.deps.Log.Debug().Str("client_id", clientID).Msg("shopper evicted")
}

func (r *Registry) build(ctx context.Context, clientID string) (*Shopper, error) {
	log := r.deps.Log.With().Str("client_id", clientID).Logger()

	c := cart.New(r.deps.Storage, clientID,
		cart.WithEmitter(r.deps.Emitter),
		cart.WithLogger(log),
		cart.WithMetrics(r.deps.Metrics),
		cart.WithCurrency(r.deps.Currency),
	)
	if err := c.Restore(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore shopper %s: %w", clientID, err)
	}

	sess := session.NewManager(r.deps.Auth, r.deps.Storage, clientID, log)
	if err := sess.Restore(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore shopper %s: %w", clientID, err)
	}

	orch := checkout.New(checkout.Deps{
		Cart:     c,
		Session:  sess,
		Payments: r.deps.Payments,
		Recorder: r.deps.Recorder,
		Emitter:  r.deps.Emitter,
		Metrics:  r.deps.Metrics,
	}, clientID, r.deps.Currency, log)

	log.Debug().Int("items", len(c.Items())).Bool("signed_in", sess.Current().Authenticated()).Msg("shopper restored")
	return &Shopper{
		ClientID: clientID,
		Cart:     c,
		Session:  sess,
		Checkout: orch,
	}, nil
}
