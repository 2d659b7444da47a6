package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/analytics"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "SEK"

const (
	opAdd      = "add"
	opIncrease = "increase"
	opDecrease = "decrease"
	opRemove   = "remove"
	opClear    = "clear"
	opCheckout = "checkout"
)

var validate = validator.New()

// Store owns one client's cart. Mutations are serialized and reach memory
// only after the new item list has been persisted.
type Store struct {
	storage  storage.Store
	key      string
	clientID string
	currency string
	emitter  analytics.Emitter
	log      zerolog.Logger
	metrics  *metrics.Metrics

	writeMu sync.Mutex
	mu      sync.RWMutex
	items   []domain.CartItem

	listenersMu sync.Mutex
	listeners   map[uint64]func(domain.Cart)
	nextID      uint64
}

type Option func(*Store)

func WithEmitter(e analytics.Emitter) Option {
	return func(s *Store) { s.emitter = e }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithCurrency(currency string) Option {
	return func(s *Store) { s.currency = currency }
}

func New(st storage.Store, clientID string, opts ...Option) *Store {
	s := &Store{
		storage:   st,
		key:       storage.CartKey(clientID),
		clientID:  clientID,
		currency:  DefaultCurrency,
		emitter:   analytics.Nop{},
		log:       zerolog.Nop(),
		listeners: make(map[uint64]func(domain.Cart)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted item list. Missing, malformed or
// invariant-breaking snapshots yield an empty cart. Only a failing
// backend is returned as an error.
func (s *Store) Restore(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		s.set(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	items, err := decodeItems(data)
	if err != nil {
		corrupt := &storage.CorruptionError{Key: s.key, Err: err}
		s.log.Warn().Err(corrupt).Msg("discarding unreadable cart snapshot")
		s.set(nil)
		return nil
	}
	s.set(items)
	return nil
}

func decodeItems(data []byte) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if err := domain.ValidateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart appends item with quantity 1, or bumps the quantity of the
// entry already holding its id. The first snapshot of name, price and
// image is kept.
func (s *Store) AddToCart(ctx context.Context, item domain.CartItemInput) error {
	if err := validate.Struct(item); err != nil {
		return fmt.Errorf("invalid cart item: %w", err)
	}
	if item.Price.IsNegative() {
		return fmt.Errorf("invalid cart item: negative price %s", item.Price)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshot()
	if i := indexOf(next, item.ID); i >= 0 {
		next[i].Quantity++
	} else {
		next = append(next, domain.CartItem{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			ImageURL: item.ImageURL,
			Quantity: 1,
		})
	}
	if err := s.commit(ctx, opAdd, next); err != nil {
		return err
	}

	added := next[indexOf(next, item.ID)]
	s.emit(ctx, analytics.EventAddToCart, added.Price, added, 1)
	return nil
}

// IncreaseQuantity is a no-op for ids not in the cart.
func (s *Store) IncreaseQuantity(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshot()
	i := indexOf(next, id)
	if i < 0 {
		return nil
	}
	next[i].Quantity++
	if err := s.commit(ctx, opIncrease, next); err != nil {
		return err
	}
	s.emit(ctx, analytics.EventAddToCart, next[i].Price, next[i], 1)
	return nil
}

// DecreaseQuantity removes the entry when its quantity would drop below 1.
func (s *Store) DecreaseQuantity(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshot()
	i := indexOf(next, id)
	if i < 0 {
		return nil
	}
	if next[i].Quantity <= 1 {
		return s.remove(ctx, next, i)
	}
	next[i].Quantity--
	return s.commit(ctx, opDecrease, next)
}

// RemoveFromCart drops the entry for id. Removing an absent id succeeds.
func (s *Store) RemoveFromCart(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshot()
	i := indexOf(next, id)
	if i < 0 {
		return nil
	}
	return s.remove(ctx, next, i)
}

func (s *Store) remove(ctx context.Context, items []domain.CartItem, i int) error {
	removed := items[i]
	next := slices.Delete(items, i, i+1)
	if err := s.commit(ctx, opRemove, next); err != nil {
		return err
	}
	s.emit(ctx, analytics.EventRemoveFromCart, removed.Price, removed, 0)
	return nil
}

func (s *Store) ClearCart(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.commit(ctx, opClear, []domain.CartItem{})
}

// RemoveItems takes paid quantities out of the cart. Entries added or
// increased after paid was taken keep the difference.
func (s *Store) RemoveItems(ctx context.Context, paid []domain.CartItem) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshot()
	for _, p := range paid {
		i := indexOf(next, p.ID)
		if i < 0 {
			continue
		}
		next[i].Quantity -= p.Quantity
		if next[i].Quantity < 1 {
			next = slices.Delete(next, i, i+1)
		}
	}
	return s.commit(ctx, opCheckout, next)
}

// Items returns a copy of the entries in insertion order.
func (s *Store) Items() []domain.CartItem {
	return s.snapshot()
}

func (s *Store) Cart() domain.Cart {
	return domain.Cart{Items: s.snapshot()}
}

func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Total(s.items)
}

func (s *Store) TotalQuantity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.TotalQuantity(s.items)
}

// Subscribe registers fn to receive the cart after every committed
// mutation. fn must not mutate the store.
func (s *Store) Subscribe(fn func(domain.Cart)) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			delete(s.listeners, id)
		})
	}
}

func (s *Store) commit(ctx context.Context, op string, next []domain.CartItem) error {
	if err := s.persist(ctx, next); err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("cart not persisted, mutation discarded")
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	s.set(next)
	s.metrics.CartMutation(op)
	s.notify()
	return nil
}

// persist drops the key for an empty cart; Restore reads a missing key as empty.
func (s *Store) persist(ctx context.Context, items []domain.CartItem) error {
	if len(items) == 0 {
		return s.storage.Delete(ctx, s.key)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	return s.storage.Set(ctx, s.key, data)
}

func (s *Store) set(items []domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items == nil {
		items = []domain.CartItem{}
	}
	s.items = items
}

func (s *Store) snapshot() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	fns := make([]func(domain.Cart), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(domain.Cart{Items: s.snapshot()})
	}
}

func (s *Store) emit(ctx context.Context, name string, value decimal.Decimal, item domain.CartItem, quantity int) {
	ai := analytics.ItemFromCart(item)
	ai.Quantity = quantity
	e := analytics.Event{
		Name:       name,
		ClientID:   s.clientID,
		Currency:   s.currency,
		Value:      value,
		Items:      []analytics.Item{ai},
		OccurredAt: time.Now().UTC(),
	}
	if err := s.emitter.Emit(ctx, e); err != nil {
		s.log.Debug().Err(err).Str("event", name).Msg("analytics emit failed")
	}
}

func indexOf(items []domain.CartItem, id int64) int {
	return slices.IndexFunc(items, func(item domain.CartItem) bool {
		return item.ID == id
	})
}
