package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/cms"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/shopper"
	"github.com/fjod/storefront/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogMock struct {
	products []domain.Product
}

func (c catalogMock) Products(context.Context) []domain.Product {
	return c.products
}

func (c catalogMock) Product(_ context.Context, slugOrID string) *domain.Product {
	for _, p := range c.products {
		if p.Slug == slugOrID || strconv.FormatInt(p.ID, 10) == slugOrID {
			return &p
		}
	}
	return nil
}

type authMock struct {
	reply cms.Record
	err   error
}

func (a authMock) Login(context.Context, cms.LoginRequest) (cms.Record, error) {
	return a.reply, a.err
}

func (a authMock) Register(context.Context, cms.RegisterRequest) (cms.Record, error) {
	return a.reply, a.err
}

type historyMock struct {
	orders []domain.Order
}

func (h historyMock) List(_ context.Context, s domain.Session) []domain.Order {
	if !s.Authenticated() {
		return []domain.Order{}
	}
	return h.orders
}

var testProducts = []domain.Product{
	{ID: 1, Name: "Mug", Slug: "mug", Price: decimal.RequireFromString("100"), InStock: true, Category: "Kitchen"},
	{ID: 2, Name: "Tee", Slug: "tee", Price: decimal.RequireFromString("249.50"), InStock: true, Category: "Clothes"},
	{ID: 3, Name: "Lamp", Slug: "lamp", Price: decimal.RequireFromString("599"), InStock: false, Category: "Kitchen"},
}

type testEnv struct {
	server   *httptest.Server
	registry *shopper.Registry
	reg      *prometheus.Registry
}

func newTestEnv(t *testing.T, auth authMock, successRate float64) *testEnv {
	t.Helper()

	reg := prometheus.NewRegistry()
	registry := shopper.NewRegistry(shopper.Deps{
		Storage:  storage.NewMemory(),
		Auth:     auth,
		Payments: payment.NewSimulator(successRate),
		Metrics:  metrics.New(reg),
		Log:      zerolog.Nop(),
	})
	catalog := catalogMock{products: testProducts}
	history := historyMock{orders: []domain.Order{{ID: 9, Total: decimal.RequireFromString("100")}}}

	router := NewRouter(RouterConfig{
		Log:            zerolog.Nop(),
		RequestTimeout: 5 * time.Second,
		Gatherer:       reg,
	}, Handlers{
		Products: NewProductHandler(catalog, time.Second),
		Cart:     NewCartHandler(registry, catalog, time.Second),
		Auth:     NewAuthHandler(registry, time.Second),
		Orders:   NewOrdersHandler(registry, history, time.Second),
		Checkout: NewCheckoutHandler(registry, time.Second),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, registry: registry, reg: reg}
}

func (e *testEnv) do(t *testing.T, method, path, clientID, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if clientID != "" {
		req.Header.Set(ClientIDHeader, clientID)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)

	resp := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProducts_ListAndFilter(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)

	resp := env.do(t, http.MethodGet, "/api/v1/products", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decodeBody[ProductsResponse](t, resp)
	assert.Len(t, all.Products, 3)

	resp = env.do(t, http.MethodGet, "/api/v1/products?category=Kitchen", "", "")
	kitchen := decodeBody[ProductsResponse](t, resp)
	require.Len(t, kitchen.Products, 2)
	assert.Equal(t, "mug", kitchen.Products[0].Slug)

	resp = env.do(t, http.MethodGet, "/api/v1/categories", "", "")
	cats := decodeBody[CategoriesResponse](t, resp)
	assert.Equal(t, []string{"Kitchen", "Clothes"}, cats.Categories)
}

func TestProducts_Get(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)

	resp := env.do(t, http.MethodGet, "/api/v1/products/tee", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decodeBody[domain.Product](t, resp)
	assert.Equal(t, int64(2), p.ID)

	resp = env.do(t, http.MethodGet, "/api/v1/products/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientID_GeneratedWhenMissing(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)

	resp := env.do(t, http.MethodGet, "/api/v1/cart", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(ClientIDHeader))
}

func TestClientID_ReadsWithoutIDRegisterNothing(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)

	for range 20 {
		resp := env.do(t, http.MethodGet, "/api/v1/cart", "", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		cart := decodeBody[CartResponse](t, resp)
		assert.Empty(t, cart.Items)
	}
	env.do(t, http.MethodGet, "/api/v1/auth/session", "", "")
	env.do(t, http.MethodGet, "/api/v1/orders", "", "")
	env.do(t, http.MethodPost, "/api/v1/auth/logout", "", "")
	env.do(t, http.MethodPost, "/api/v1/cart/items/1/increase", "", "")
	env.do(t, http.MethodDelete, "/api/v1/cart", "", "")

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", "", `{"payment_reference":"ORDER-1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, 0, env.registry.Len())

	resp = env.do(t, http.MethodPost, "/api/v1/cart/items", "", `{"product":"mug"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	issued := resp.Header.Get(ClientIDHeader)
	require.NotEmpty(t, issued)
	assert.Equal(t, 1, env.registry.Len())

	resp = env.do(t, http.MethodGet, "/api/v1/cart", issued, "")
	cart := decodeBody[CartResponse](t, resp)
	assert.Len(t, cart.Items, 1)
}

func TestClientID_TooLong(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)

	resp := env.do(t, http.MethodGet, "/api/v1/cart", strings.Repeat("x", 200), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCart_Flow(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)
	const client = "client-a"

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", client, `{"product":"mug"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/cart/items", client, `{"product":2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/cart/items/1/increase", client, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := decodeBody[CartResponse](t, resp)
	assert.Equal(t, 3, cart.TotalQuantity)
	assert.Equal(t, "449.5", cart.Total.String())

	resp = env.do(t, http.MethodPost, "/api/v1/cart/items/1/decrease", client, "")
	cart = decodeBody[CartResponse](t, resp)
	assert.Equal(t, 2, cart.TotalQuantity)

	resp = env.do(t, http.MethodDelete, "/api/v1/cart/items/2", client, "")
	cart = decodeBody[CartResponse](t, resp)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(1), cart.Items[0].ID)

	resp = env.do(t, http.MethodDelete, "/api/v1/cart", client, "")
	cart = decodeBody[CartResponse](t, resp)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestCart_IsolatedPerClient(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)

	env.do(t, http.MethodPost, "/api/v1/cart/items", "a", `{"product":"mug"}`)

	resp := env.do(t, http.MethodGet, "/api/v1/cart", "b", "")
	cart := decodeBody[CartResponse](t, resp)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 2, env.registry.Len())
}

func TestCart_AddItemErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "invalid json", body: "invalid json", status: http.StatusBadRequest},
		{name: "missing product", body: `{}`, status: http.StatusBadRequest},
		{name: "unknown product", body: `{"product":"nope"}`, status: http.StatusNotFound},
		{name: "out of stock", body: `{"product":"lamp"}`, status: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, authMock{}, 1)
			resp := env.do(t, http.MethodPost, "/api/v1/cart/items", "c", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCart_InvalidItemID(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items/abc/increase", "c", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuth_LoginAndLogout(t *testing.T) {
	auth := authMock{reply: cms.Record{
		"jwt":  "opaque-token",
		"user": cms.Record{"id": json.Number("7"), "username": "ada", "email": "ada@example.com"},
	}}
	env := newTestEnv(t, auth, 1)
	const client = "client-auth"

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", client, `{"identifier":"ada","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess := decodeBody[SessionResponse](t, resp)
	assert.True(t, sess.Authenticated)
	require.NotNil(t, sess.User)
	assert.Equal(t, "ada", sess.User.Username)

	resp = env.do(t, http.MethodGet, "/api/v1/orders", client, "")
	orders := decodeBody[OrdersResponse](t, resp)
	assert.Len(t, orders.Orders, 1)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/logout", client, "")
	sess = decodeBody[SessionResponse](t, resp)
	assert.False(t, sess.Authenticated)

	resp = env.do(t, http.MethodGet, "/api/v1/orders", client, "")
	orders = decodeBody[OrdersResponse](t, resp)
	assert.Empty(t, orders.Orders)
}

func TestAuth_LoginRejected(t *testing.T) {
	auth := authMock{reply: cms.Record{"error": cms.Record{"message": "Invalid identifier or password"}}}
	env := newTestEnv(t, auth, 1)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", "c", `{"identifier":"ada","password":"bad"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "Invalid identifier or password", body.Error)
}

func TestAuth_RegisterValidation(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "c", `{"username":"ada","email":"nope","password":"x"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[ErrorResponse](t, resp)
	assert.Equal(t, "email must be a valid email address", body.Error)
}

func TestCheckout_Settles(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)
	const client = "client-pay"

	env.do(t, http.MethodPost, "/api/v1/cart/items", client, `{"product":"mug"}`)

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", client, `{"payment_reference":"ORDER-1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decodeBody[CheckoutResponseDTO](t, resp)
	assert.Equal(t, domain.CheckoutStatusSettled.String(), res.Status)
	assert.Equal(t, "100", res.Total.String())
	assert.NotEmpty(t, res.TransactionID)
	assert.NotEmpty(t, res.CaptureID)
	assert.False(t, res.OrderPersisted)

	resp = env.do(t, http.MethodGet, "/api/v1/cart", client, "")
	cart := decodeBody[CartResponse](t, resp)
	assert.Empty(t, cart.Items)
}

func TestCheckout_Errors(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		env := newTestEnv(t, authMock{}, 1)
		resp := env.do(t, http.MethodPost, "/api/v1/checkout", "c", `{"payment_reference":"ORDER-1"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("missing reference", func(t *testing.T) {
		env := newTestEnv(t, authMock{}, 1)
		resp := env.do(t, http.MethodPost, "/api/v1/checkout", "c", `{}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("capture declined", func(t *testing.T) {
		env := newTestEnv(t, authMock{}, 0)
		env.do(t, http.MethodPost, "/api/v1/cart/items", "c", `{"product":"mug"}`)

		resp := env.do(t, http.MethodPost, "/api/v1/checkout", "c", `{"payment_reference":"ORDER-1"}`)
		require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		body := decodeBody[ErrorResponse](t, resp)
		assert.Equal(t, "payment_capture_failed", body.Code)

		resp = env.do(t, http.MethodGet, "/api/v1/cart", "c", "")
		cart := decodeBody[CartResponse](t, resp)
		assert.Len(t, cart.Items, 1)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, authMock{}, 1)
	env.do(t, http.MethodPost, "/api/v1/cart/items", "m", `{"product":"mug"}`)

	resp := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	families, err := env.reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
