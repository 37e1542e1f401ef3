package domain

import "time"

// Coupon is a single-use percentage discount bound to one customer. A
// partial unique index on (user_id) WHERE is_active keeps at most one
// active coupon per customer.
type Coupon struct {
	ID                 string    `json:"id"`
	Code               string    `json:"code"`
	DiscountPercentage int       `json:"discount_percentage"`
	ExpirationDate     time.Time `json:"expiration_date"`
	IsActive           bool      `json:"is_active"`
	UserID             string    `json:"user_id"`
	CreatedAt          time.Time `json:"created_at"`
}

func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpirationDate.Before(now)
}
