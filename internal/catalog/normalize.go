package catalog

import (
	"strings"

	"github.com/fjod/storefront/internal/cms"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Normalize maps one remote product record to a Product. It never fails:
// every missing or malformed field falls back to its default.
func Normalize(record cms.Record, baseURL string) domain.Product {
	attrs := cms.Attributes(record)

	p := domain.Product{
		ID:       productID(record, attrs),
		Name:     "Unknown",
		Price:    decimal.Zero,
		ImageURL: imageURL(attrs, baseURL),
		InStock:  cms.Bool(attrs["inStock"]),
		Category: categoryName(attrs["category"]),
	}
	if name, ok := cms.String(attrs["name"]); ok {
		p.Name = name
	}
	if slug, ok := cms.String(attrs["slug"]); ok {
		p.Slug = slug
	}
	if desc, ok := cms.String(attrs["description"]); ok {
		p.Description = desc
	}
	if price, ok := cms.Decimal(attrs["price"]); ok && !price.IsNegative() {
		p.Price = price
	}
	return p
}

func NormalizeAll(records []cms.Record, baseURL string) []domain.Product {
	products := make([]domain.Product, len(records))
	for i, r := range records {
		products[i] = Normalize(r, baseURL)
	}
	return products
}

func productID(record, attrs cms.Record) int64 {
	if id, ok := cms.Int(record["id"]); ok {
		return id
	}
	if id, ok := cms.Int(attrs["id"]); ok {
		return id
	}
	return 0
}

func imageURL(attrs cms.Record, baseURL string) string {
	path, ok := cms.String(cms.Path(attrs, "image", "url"))
	if !ok {
		path, ok = cms.String(cms.Path(attrs, "image", "data", "attributes", "url"))
	}
	if !ok {
		return ""
	}
	if strings.HasPrefix(path, "http") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// categoryName accepts {name}, {data:{attributes:{name}}}, a one-element
// array of either, or a bare string.
func categoryName(v any) string {
	v = cms.First(v)
	if name, ok := cms.String(v); ok {
		return name
	}
	if name, ok := cms.String(cms.Path(v, "name")); ok {
		return name
	}
	if name, ok := cms.String(cms.Path(v, "data", "attributes", "name")); ok {
		return name
	}
	return domain.UncategorizedCategory
}
