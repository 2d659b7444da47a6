package cms

import (
	"context"
	"net/url"
)

// ListProducts fetches every product with its relations populated.
func (c *Client) ListProducts(ctx context.Context) ([]Record, error) {
	q := url.Values{}
	q.Set("populate", "*")
	return c.getData(ctx, "list_products", "/api/products", q, "")
}

// ProductBySlug returns the first product whose slug matches, or nil.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (Record, error) {
	q := url.Values{}
	q.Set("filters[slug][$eq]", slug)
	q.Set("populate", "*")
	records, err := c.getData(ctx, "product_by_slug", "/api/products", q, "")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}
