package cache

import (
	"context"
	"errors"

	"github.com/mcollection/storefront/internal/domain"
)

// ProductListCache holds the featured-product list. It is invalidated on
// every product create/update/delete and on feature toggles.
type ProductListCache interface {
	Get(ctx context.Context, key string) ([]domain.Product, error)
	Set(ctx context.Context, key string, products []domain.Product) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
