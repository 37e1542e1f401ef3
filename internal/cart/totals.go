package cart

import "github.com/mcollection/storefront/internal/domain"

// Totals is a pure function of the lines and an optionally applied
// coupon; it is recomputed after every mutation and never stored.
// Discount rounding is half-up on the cent.
func Totals(items []domain.CartItem, coupon *domain.Coupon) domain.CartTotals {
	var subtotal int64
	for _, item := range items {
		subtotal += item.Price * int64(item.Quantity)
	}

	totals := domain.CartTotals{Subtotal: subtotal, Total: subtotal}
	if coupon != nil {
		totals.Discount = (subtotal*int64(coupon.DiscountPercentage) + 50) / 100
		totals.Total = subtotal - totals.Discount
	}

	return totals
}
