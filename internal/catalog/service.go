package catalog

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cms"
	"github.com/fjod/storefront/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// AllCategories is the filter value that selects every product.
const AllCategories = "All"

const productsKey = "products"

// DefaultFetchTimeout bounds a shared fetch, which no single caller's
// context controls.
const DefaultFetchTimeout = 10 * time.Second

type Source interface {
	ListProducts(ctx context.Context) ([]cms.Record, error)
	ProductBySlug(ctx context.Context, slug string) (cms.Record, error)
}

type fetchResult struct {
	seq      uint64
	products []domain.Product
}

// Service serves normalized catalog views. Identical concurrent queries share
// one fetch, and a response older than the newest completed one for the same
// query is replaced by that newer result.
type Service struct {
	source       Source
	baseURL      string
	log          zerolog.Logger
	fetchTimeout time.Duration

	group  singleflight.Group
	mu     sync.Mutex
	issued map[string]uint64
	latest map[string]fetchResult
}

func NewService(source Source, baseURL string, log zerolog.Logger) *Service {
	return &Service{
		source:       source,
		baseURL:      baseURL,
		log:          log,
		fetchTimeout: DefaultFetchTimeout,
		issued:       make(map[string]uint64),
		latest:       make(map[string]fetchResult),
	}
}

// Products returns every product, or an empty list when the CMS is unreachable.
func (s *Service) Products(ctx context.Context) []domain.Product {
	return s.load(ctx, productsKey, s.fetchAll)
}

// Refresh starts a new product fetch that supersedes any in flight.
func (s *Service) Refresh(ctx context.Context) []domain.Product {
	s.group.Forget(productsKey)
	return s.load(ctx, productsKey, s.fetchAll)
}

// ProductBySlug returns nil when the product is missing or the CMS fails.
func (s *Service) ProductBySlug(ctx context.Context, slug string) *domain.Product {
	if slug == "" {
		return nil
	}
	found := s.load(ctx, "slug:"+slug, func(ctx context.Context) ([]domain.Product, error) {
		record, err := s.source.ProductBySlug(ctx, slug)
		if err != nil || record == nil {
			return nil, err
		}
		return []domain.Product{Normalize(record, s.baseURL)}, nil
	})
	if len(found) == 0 {
		return nil
	}
	p := found[0]
	return &p
}

// Product resolves a slug first and then, for numeric input, an id.
func (s *Service) Product(ctx context.Context, slugOrID string) *domain.Product {
	if p := s.ProductBySlug(ctx, slugOrID); p != nil {
		return p
	}
	id, err := strconv.ParseInt(slugOrID, 10, 64)
	if err != nil {
		return nil
	}
	for _, p := range s.Products(ctx) {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

func (s *Service) fetchAll(ctx context.Context) ([]domain.Product, error) {
	records, err := s.source.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(records, s.baseURL), nil
}

func (s *Service) load(ctx context.Context, key string, fetch func(context.Context) ([]domain.Product, error)) []domain.Product {
	// The fetch is shared, so it runs detached from the caller that started
	// it. Each caller stops waiting when its own ctx ends.
	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		seq := s.issue(key)
		products, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		return s.settle(key, seq, products), nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		s.log.Debug().Err(ctx.Err()).Str("query", key).Msg("catalog caller gave up")
		return []domain.Product{}
	}
	if res.Err != nil {
		s.log.Warn().Err(res.Err).Str("query", key).Msg("catalog fetch failed")
		return []domain.Product{}
	}
	products, _ := res.Val.([]domain.Product)
	if products == nil {
		return []domain.Product{}
	}
	return append([]domain.Product(nil), products...)
}

func (s *Service) issue(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[key]++
	return s.issued[key]
}

func (s *Service) settle(key string, seq uint64, products []domain.Product) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if newest, ok := s.latest[key]; ok && newest.seq > seq {
		s.log.Debug().Str("query", key).Uint64("seq", seq).Msg("stale catalog response discarded")
		return newest.products
	}
	s.latest[key] = fetchResult{seq: seq, products: products}
	return products
}

// Categories lists the distinct category names in first-seen order.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

func FilterByCategory(products []domain.Product, category string) []domain.Product {
	if category == "" || category == AllCategories {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
