package orders

import (
	"context"
	"time"

	"github.com/fjod/storefront/internal/cms"
	"github.com/fjod/storefront/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Source interface {
	ListOrders(ctx context.Context, token string, userID int64) ([]cms.Record, error)
	CreateOrder(ctx context.Context, token string, order domain.Order) (cms.Record, error)
}

type History struct {
	source Source
	log    zerolog.Logger
}

func NewHistory(source Source, log zerolog.Logger) *History {
	return &History{source: source, log: log}
}

// List returns the signed-in user's orders. Guests and failed lookups get
// an empty list.
func (h *History) List(ctx context.Context, s domain.Session) []domain.Order {
	if !s.Authenticated() {
		return []domain.Order{}
	}
	records, err := h.source.ListOrders(ctx, s.Token, s.User.ID)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", s.User.ID).Msg("order history unavailable")
		return []domain.Order{}
	}
	out := make([]domain.Order, len(records))
	for i, r := range records {
		out[i] = Normalize(r)
	}
	return out
}

type Recorder struct {
	source Source
}

func NewRecorder(source Source) *Recorder {
	return &Recorder{source: source}
}

// Record writes order and returns it with the id and timestamp the CMS
// assigned, when it reported them.
func (r *Recorder) Record(ctx context.Context, token string, order domain.Order) (domain.Order, error) {
	created, err := r.source.CreateOrder(ctx, token, order)
	if err != nil {
		return order, &OrderPersistenceError{Err: err}
	}
	if created != nil {
		stored := Normalize(created)
		order.ID = stored.ID
		order.CreatedAt = stored.CreatedAt
	}
	return order, nil
}

// Normalize maps a remote order record, flat or under attributes.
func Normalize(r cms.Record) domain.Order {
	attrs := cms.Attributes(r)

	o := domain.Order{Total: decimal.Zero}
	if id, ok := cms.Int(r["id"]); ok {
		o.ID = id
	} else if id, ok := cms.Int(attrs["id"]); ok {
		o.ID = id
	}
	if total, ok := cms.Decimal(attrs["total"]); ok && !total.IsNegative() {
		o.Total = total
	}
	if ts, ok := cms.String(attrs["createdAt"]); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			o.CreatedAt = t
		}
	}

	items := cms.List(attrs["items"])
	o.Items = make([]domain.OrderItem, len(items))
	for i, item := range items {
		o.Items[i] = normalizeItem(item)
	}
	return o
}

func normalizeItem(r cms.Record) domain.OrderItem {
	item := domain.OrderItem{Price: decimal.Zero, Quantity: 1}
	item.ProductID, _ = cms.Int(r["productId"])
	item.Name, _ = cms.String(r["name"])
	if price, ok := cms.Decimal(r["price"]); ok && !price.IsNegative() {
		item.Price = price
	}
	if qty, ok := cms.Int(r["quantity"]); ok && qty > 0 {
		item.Quantity = int(qty)
	}
	return item
}
