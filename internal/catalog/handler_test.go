package catalog

import (
	"net/http/httptest"
	"testing"

	"github.com/mcollection/storefront/internal/domain"
)

func TestFilterFromQuery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/products", nil)

		filter, err := filterFromQuery(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if filter.Category != "" || filter.InStockOnly || filter.FeaturedOnly {
			t.Fatalf("expected zero filter, got %+v", filter)
		}
		if filter.MinPrice != nil || filter.MaxPrice != nil {
			t.Fatal("expected no price bounds")
		}
	})

	t.Run("full query", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/products?category=laptops&minPrice=1000&maxPrice=50000&inStockOnly=true&featuredOnly=true&sortBy=price_asc", nil)

		filter, err := filterFromQuery(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if filter.Category != "laptops" {
			t.Fatalf("expected category laptops, got %q", filter.Category)
		}
		if filter.MinPrice == nil || *filter.MinPrice != 1000 {
			t.Fatalf("expected minPrice 1000, got %v", filter.MinPrice)
		}
		if filter.MaxPrice == nil || *filter.MaxPrice != 50000 {
			t.Fatalf("expected maxPrice 50000, got %v", filter.MaxPrice)
		}
		if !filter.InStockOnly || !filter.FeaturedOnly {
			t.Fatalf("expected stock and featured flags set, got %+v", filter)
		}
		if filter.SortBy != domain.SortPriceAsc {
			t.Fatalf("expected sort price_asc, got %q", filter.SortBy)
		}
	})

	t.Run("invalid price", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/products?minPrice=abc", nil)

		if _, err := filterFromQuery(req); err == nil {
			t.Fatal("expected error for invalid minPrice")
		}
	})
}
