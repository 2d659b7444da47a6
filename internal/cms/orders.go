package cms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/storefront/internal/domain"
)

type orderItemPayload struct {
	ProductID int64       `json:"productId"`
	Name      string      `json:"name"`
	Price     json.Number `json:"price"`
	Quantity  int         `json:"quantity"`
}

type orderPayload struct {
	Data struct {
		Items []orderItemPayload `json:"items"`
		Total json.Number        `json:"total"`
	} `json:"data"`
}

func newOrderPayload(order domain.Order) orderPayload {
	var p orderPayload
	p.Data.Items = make([]orderItemPayload, len(order.Items))
	for i, item := range order.Items {
		p.Data.Items[i] = orderItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     json.Number(item.Price.String()),
			Quantity:  item.Quantity,
		}
	}
	p.Data.Total = json.Number(order.Total.String())
	return p
}

// ListOrders returns the raw order records owned by userID.
func (c *Client) ListOrders(ctx context.Context, token string, userID int64) ([]Record, error) {
	q := url.Values{}
	q.Set("filters[user][$eq]", strconv.FormatInt(userID, 10))
	q.Set("populate", "*")
	return c.getData(ctx, "list_orders", "/api/orders", q, token)
}

// CreateOrder writes order and returns the created record. token may be
// empty for guest checkouts.
func (c *Client) CreateOrder(ctx context.Context, token string, order domain.Order) (Record, error) {
	const op = "create_order"
	res, err := c.do(ctx, op, http.MethodPost, "/api/orders", nil, token, newOrderPayload(order))
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, &NetworkError{Op: op, StatusCode: res.status}
	}
	doc, err := decode(res.body)
	if err != nil {
		return nil, &NetworkError{Op: op, StatusCode: res.status, Err: err}
	}
	created, _ := Object(doc["data"])
	return created, nil
}
