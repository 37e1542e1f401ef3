package auth

import (
	"context"

	"github.com/mcollection/storefront/internal/domain"
)

// Identity is the authenticated caller for one request. The storefront
// trusts the session provider completely; there is no second check.
type Identity struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == domain.RoleAdmin
}

type ctxKey struct{}

func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request identity; ok is false for guests.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
