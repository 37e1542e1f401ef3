package domain

import "time"

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	ProductID string    `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingSummary aggregates all reviews of a product. Average is 0 when
// Count is 0, otherwise the arithmetic mean rounded half-up to two
// decimal places.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
