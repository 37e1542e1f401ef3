package domain

import "time"

// Price and all money amounts are integer cents.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	StockCount  int       `json:"stock_count"`
	IsFeatured  bool      `json:"is_featured"`
	Specs       []string  `json:"specs"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortPopular   SortOrder = "popular"
)

type ProductFilter struct {
	Category     string
	MinPrice     *int64
	MaxPrice     *int64
	InStockOnly  bool
	FeaturedOnly bool
	SortBy       SortOrder
}
