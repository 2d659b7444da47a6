package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type Catalog interface {
	Products(ctx context.Context) []domain.Product
	Product(ctx context.Context, slugOrID string) *domain.Product
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewProductHandler(c Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: c,
		timeout: timeout,
	}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// GET /api/v1/products?category=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products := catalog.FilterByCategory(h.catalog.Products(ctx), r.URL.Query().Get("category"))
	respondJSON(w, r, http.StatusOK, ProductsResponse{Products: products})
}

// GET /api/v1/products/{slug}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p := h.catalog.Product(ctx, chi.URLParam(r, "slug"))
	if p == nil {
		handleError(w, r, domain.ErrProductNotFound)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

// GET /api/v1/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	respondJSON(w, r, http.StatusOK, CategoriesResponse{
		Categories: catalog.Categories(h.catalog.Products(ctx)),
	})
}
