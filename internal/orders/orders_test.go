package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/cms"
	"github.com/fjod/storefront/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	records   []cms.Record
	created   cms.Record
	err       error
	lastToken string
	lastUser  int64
	lastOrder domain.Order
}

func (m *mockSource) ListOrders(_ context.Context, token string, userID int64) ([]cms.Record, error) {
	m.lastToken, m.lastUser = token, userID
	return m.records, m.err
}

func (m *mockSource) CreateOrder(_ context.Context, token string, order domain.Order) (cms.Record, error) {
	m.lastToken, m.lastOrder = token, order
	return m.created, m.err
}

func signedIn() domain.Session {
	return domain.Session{Token: "jwt", User: &domain.User{ID: 42}}
}

func TestHistory_List(t *testing.T) {
	src := &mockSource{records: []cms.Record{
		{"id": json.Number("1"), "attributes": map[string]any{
			"total":     json.Number("250"),
			"createdAt": "2026-03-01T10:00:00Z",
			"items": []any{
				map[string]any{"productId": json.Number("1"), "name": "Mug", "price": json.Number("100"), "quantity": json.Number("2")},
				map[string]any{"productId": json.Number("2"), "name": "Pen", "price": "50"},
			},
		}},
		{"id": json.Number("2"), "total": "-10"},
	}}
	h := NewHistory(src, zerolog.Nop())

	list := h.List(context.Background(), signedIn())

	require.Len(t, list, 2)
	assert.Equal(t, "jwt", src.lastToken)
	assert.Equal(t, int64(42), src.lastUser)

	first := list[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "250", first.Total.String())
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), first.CreatedAt.UTC())
	require.Len(t, first.Items, 2)
	assert.Equal(t, 2, first.Items[0].Quantity)
	assert.Equal(t, 1, first.Items[1].Quantity)
	assert.Equal(t, "50", first.Items[1].Price.String())

	assert.Equal(t, int64(2), list[1].ID)
	assert.True(t, list[1].Total.IsZero())
	assert.Empty(t, list[1].Items)
}

func TestHistory_DegradesToEmpty(t *testing.T) {
	h := NewHistory(&mockSource{err: errors.New("cms down")}, zerolog.Nop())
	list := h.List(context.Background(), signedIn())
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestHistory_GuestGetsEmpty(t *testing.T) {
	src := &mockSource{}
	h := NewHistory(src, zerolog.Nop())
	assert.Empty(t, h.List(context.Background(), domain.Session{}))
	assert.Zero(t, src.lastUser)
}

func TestRecorder_Record(t *testing.T) {
	src := &mockSource{created: cms.Record{"id": json.Number("9"), "attributes": map[string]any{"createdAt": "2026-03-01T10:00:00Z"}}}
	r := NewRecorder(src)

	order := domain.NewOrder([]domain.CartItem{{ID: 1, Name: "Mug", Price: decimal.NewFromInt(100), Quantity: 2}})
	stored, err := r.Record(context.Background(), "jwt", order)

	require.NoError(t, err)
	assert.Equal(t, int64(9), stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, "200", stored.Total.String())
	assert.Equal(t, "jwt", src.lastToken)
	assert.Len(t, src.lastOrder.Items, 1)
}

func TestRecorder_Failure(t *testing.T) {
	cause := &cms.NetworkError{Op: "create_order", StatusCode: 500}
	r := NewRecorder(&mockSource{err: cause})

	_, err := r.Record(context.Background(), "", domain.Order{})

	var persistErr *OrderPersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.ErrorIs(t, err, cause)
}
