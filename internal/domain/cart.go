package domain

// CartItem is one (product, quantity) line of a customer's cart. Price is
// the product's current price at read time, never a snapshot; snapshots
// only exist on order lines.
type CartItem struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Image     string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CartTotals is derived from the lines plus an optionally applied coupon
// and is recomputed after every cart mutation, never persisted.
type CartTotals struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}
